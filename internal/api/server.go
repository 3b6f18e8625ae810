package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/trendscope/skilltrends/internal/collection"
	"github.com/trendscope/skilltrends/internal/config"
	"github.com/trendscope/skilltrends/internal/models"
	"github.com/trendscope/skilltrends/internal/sources"
	"github.com/trendscope/skilltrends/internal/store"
)

// HotFetcher fetches trending posts for one subreddit without a query.
type HotFetcher interface {
	FetchHot(ctx context.Context, subreddit string, limit int) ([]models.DiscussionRecord, error)
}

// Server wires the HTTP triggering surface over the collection service.
type Server struct {
	config     *config.Config
	collection *collection.Service
	store      store.Store
	hot        HotFetcher
}

// NewServer creates the API server. hot may be nil when no trending source
// is available.
func NewServer(cfg *config.Config, svc *collection.Service, st store.Store, hot HotFetcher) *Server {
	return &Server{
		config:     cfg,
		collection: svc,
		store:      st,
		hot:        hot,
	}
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/health", s.handleHealth).Methods("GET")
	router.HandleFunc("/metrics", s.handleMetrics).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/jobs/fetch", s.handleJobsFetch).Methods("POST")
	api.HandleFunc("/jobs/fetch-batch", s.handleJobsFetchBatch).Methods("POST")
	api.HandleFunc("/jobs/stats", s.handleJobsStats).Methods("GET")

	api.HandleFunc("/discussions/fetch", s.handleDiscussionsFetch).Methods("POST")
	api.HandleFunc("/discussions/fetch-batch", s.handleDiscussionsFetchBatch).Methods("POST")
	api.HandleFunc("/discussions/fetch-hot/{subreddit}", s.handleDiscussionsFetchHot).Methods("POST")
	api.HandleFunc("/discussions/stats", s.handleDiscussionsStats).Methods("GET")
	api.HandleFunc("/discussions/subreddits", s.handleSubreddits).Methods("GET")

	api.HandleFunc("/cron/run-jobs", s.handleRunJobs).Methods("POST")
	api.HandleFunc("/cron/run-discussions", s.handleRunDiscussions).Methods("POST")
	api.HandleFunc("/cron/run-full", s.handleRunFull).Methods("POST")
	api.HandleFunc("/cron/aggregate-trends", s.handleAggregateTrends).Methods("POST")
	api.HandleFunc("/cron/config", s.handleCronConfig).Methods("GET")

	return router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(s.collection.GetMetrics()))
}

type jobFetchRequest struct {
	Query      string `json:"query"`
	Location   string `json:"location"`
	NumResults int    `json:"num_results"`
}

func (s *Server) handleJobsFetch(w http.ResponseWriter, r *http.Request) {
	var req jobFetchRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, errors.New("query is required"))
		return
	}
	if req.Location == "" {
		req.Location = s.config.DefaultLocation
	}
	if req.NumResults <= 0 {
		req.NumResults = 10
	}

	jobs, err := s.collection.Jobs().Fetch(r.Context(), req.Query, sources.JobOptions{
		Location:   req.Location,
		NumResults: req.NumResults,
	})
	if err != nil {
		writeSourceError(w, err)
		return
	}

	result := s.collection.Writer().StoreJobs(r.Context(), jobs)
	writeJSON(w, http.StatusOK, map[string]any{
		"query":          req.Query,
		"jobs_fetched":   len(jobs),
		"storage_result": result,
	})
}

type jobBatchRequest struct {
	Queries    []string `json:"queries"`
	Location   string   `json:"location"`
	NumResults int      `json:"num_results"`
}

func (s *Server) handleJobsFetchBatch(w http.ResponseWriter, r *http.Request) {
	var req jobBatchRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if len(req.Queries) == 0 {
		req.Queries = s.config.JobQueries
	}
	if req.Location == "" {
		req.Location = s.config.DefaultLocation
	}
	if req.NumResults <= 0 {
		req.NumResults = 10
	}

	jobs, err := s.collection.Jobs().FetchBatch(r.Context(), req.Queries, sources.JobOptions{
		Location:   req.Location,
		NumResults: req.NumResults,
	})
	if err != nil {
		writeSourceError(w, err)
		return
	}

	result := s.collection.Writer().StoreJobs(r.Context(), jobs)
	writeJSON(w, http.StatusOK, map[string]any{
		"queries_processed": len(req.Queries),
		"jobs_fetched":      len(jobs),
		"storage_result":    result,
	})
}

func (s *Server) handleJobsStats(w http.ResponseWriter, r *http.Request) {
	count, err := s.store.JobCount(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"total_jobs": count})
}

type discussionFetchRequest struct {
	Query      string   `json:"query"`
	Subreddits []string `json:"subreddits"`
	MaxItems   int      `json:"max_items"`
	Sort       string   `json:"sort"`
}

func (s *Server) handleDiscussionsFetch(w http.ResponseWriter, r *http.Request) {
	var req discussionFetchRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, errors.New("query is required"))
		return
	}
	if req.MaxItems <= 0 {
		req.MaxItems = 25
	}

	posts, err := s.collection.Discussions().Fetch(r.Context(), req.Query, sources.DiscussionOptions{
		Subreddits: req.Subreddits,
		MaxItems:   req.MaxItems,
		Sort:       req.Sort,
	})
	if err != nil {
		writeSourceError(w, err)
		return
	}

	result := s.collection.Writer().StoreDiscussions(r.Context(), posts)
	writeJSON(w, http.StatusOK, map[string]any{
		"query":               req.Query,
		"discussions_fetched": len(posts),
		"storage_result":      result,
	})
}

type discussionBatchRequest struct {
	Queries  []string `json:"queries"`
	MaxItems int      `json:"max_items"`
	Sort     string   `json:"sort"`
}

func (s *Server) handleDiscussionsFetchBatch(w http.ResponseWriter, r *http.Request) {
	var req discussionBatchRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if len(req.Queries) == 0 {
		req.Queries = s.config.SkillQueries
	}
	if req.MaxItems <= 0 {
		req.MaxItems = 15
	}

	posts, err := s.collection.Discussions().FetchBatch(r.Context(), req.Queries, sources.DiscussionOptions{
		MaxItems: req.MaxItems,
		Sort:     req.Sort,
	})
	if err != nil {
		writeSourceError(w, err)
		return
	}

	result := s.collection.Writer().StoreDiscussions(r.Context(), posts)
	writeJSON(w, http.StatusOK, map[string]any{
		"queries_processed":   len(req.Queries),
		"discussions_fetched": len(posts),
		"storage_result":      result,
	})
}

func (s *Server) handleDiscussionsFetchHot(w http.ResponseWriter, r *http.Request) {
	if s.hot == nil {
		writeError(w, http.StatusBadRequest, errors.New("hot post fetching is not available for the configured discussion source"))
		return
	}

	subreddit := mux.Vars(r)["subreddit"]
	limit := 25
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	posts, err := s.hot.FetchHot(r.Context(), subreddit, limit)
	if err != nil {
		writeSourceError(w, err)
		return
	}

	result := s.collection.Writer().StoreDiscussions(r.Context(), posts)
	writeJSON(w, http.StatusOK, map[string]any{
		"subreddit":           subreddit,
		"discussions_fetched": len(posts),
		"storage_result":      result,
	})
}

func (s *Server) handleDiscussionsStats(w http.ResponseWriter, r *http.Request) {
	count, err := s.store.DiscussionCount(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"total_discussions": count})
}

func (s *Server) handleSubreddits(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"subreddits": sources.DefaultSubreddits})
}

func (s *Server) handleRunJobs(w http.ResponseWriter, r *http.Request) {
	result, err := s.collection.RunJobsCollection(r.Context())
	if err != nil {
		writeSourceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleRunDiscussions(w http.ResponseWriter, r *http.Request) {
	result, err := s.collection.RunDiscussionsCollection(r.Context())
	if err != nil {
		writeSourceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleRunFull(w http.ResponseWriter, r *http.Request) {
	result, err := s.collection.RunFull(r.Context())
	if err != nil {
		writeSourceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type aggregateRequest struct {
	SnapshotDate string `json:"snapshot_date"`
}

func (s *Server) handleAggregateTrends(w http.ResponseWriter, r *http.Request) {
	var req aggregateRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	if req.SnapshotDate != "" {
		if _, err := time.Parse("2006-01-02", req.SnapshotDate); err != nil {
			writeError(w, http.StatusBadRequest, errors.New("snapshot_date must be YYYY-MM-DD"))
			return
		}
	}

	summary, err := s.collection.AggregateTrends(r.Context(), req.SnapshotDate)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleCronConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"collection_schedule": s.config.CollectionSchedule,
		"timezone":            s.config.TimeZone,
		"discussion_source":   s.config.DiscussionSource,
		"job_queries":         s.config.JobQueries,
		"skill_queries":       s.config.SkillQueries,
	})
}

func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.New("invalid request body")
	}
	return nil
}

// writeSourceError maps missing-credential failures to 400 so callers can
// tell misconfiguration apart from upstream trouble.
func writeSourceError(w http.ResponseWriter, err error) {
	var cfgErr *sources.ConfigError
	if errors.As(err, &cfgErr) {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeError(w, http.StatusInternalServerError, err)
}

func writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		logrus.Errorf("Request failed: %v", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logrus.Errorf("Failed to encode response: %v", err)
	}
}
