package skills

// Lexicon is the fixed vocabulary of recognized technology terms plus the
// alias table mapping surface variants to one canonical form. It is a data
// asset: extraction logic never hardcodes skill names, so the vocabulary can
// be extended without touching the extractor.
type Lexicon struct {
	Skills  []string
	Aliases map[string]string
}

// Normalize resolves a matched token to its canonical form.
func (l Lexicon) Normalize(skill string) string {
	if canonical, ok := l.Aliases[skill]; ok {
		return canonical
	}
	return skill
}

// DefaultLexicon returns the built-in technology vocabulary.
func DefaultLexicon() Lexicon {
	return Lexicon{
		Skills: []string{
			// Programming languages
			"python", "javascript", "typescript", "java", "c++", "c#", "go", "golang",
			"rust", "ruby", "php", "swift", "kotlin", "scala", "r", "matlab",

			// Frontend
			"react", "reactjs", "react.js", "vue", "vuejs", "vue.js", "angular",
			"svelte", "next.js", "nextjs", "nuxt", "gatsby", "html", "css", "sass",
			"tailwind", "tailwindcss", "bootstrap", "jquery",

			// Backend
			"node.js", "nodejs", "express", "fastapi", "django", "flask", "spring",
			"spring boot", "asp.net", ".net", "rails", "laravel", "gin", "fiber",

			// Databases
			"postgresql", "postgres", "mysql", "mongodb", "redis", "elasticsearch",
			"dynamodb", "cassandra", "sqlite", "oracle", "sql server", "supabase",
			"firebase", "neo4j", "graphql",

			// Cloud & DevOps
			"aws", "amazon web services", "azure", "gcp", "google cloud", "docker",
			"kubernetes", "k8s", "terraform", "ansible", "jenkins", "github actions",
			"gitlab ci", "circleci", "vercel", "netlify", "heroku",

			// AI/ML
			"machine learning", "ml", "deep learning", "tensorflow", "pytorch",
			"keras", "scikit-learn", "pandas", "numpy", "opencv", "nlp",
			"natural language processing", "llm", "langchain", "openai", "gpt",
			"hugging face", "transformers",

			// Data
			"apache spark", "hadoop", "kafka", "airflow", "snowflake", "databricks",
			"power bi", "tableau", "looker", "dbt", "etl", "data pipeline",

			// Mobile
			"react native", "flutter", "ios", "android", "objective-c",

			// Tools
			"git", "github", "gitlab", "jira", "confluence", "slack", "figma",
			"postman", "linux", "bash", "vim", "vscode",

			// Concepts
			"rest", "restful", "api", "microservices", "serverless", "ci/cd",
			"agile", "scrum", "tdd", "unit testing", "integration testing",
		},
		Aliases: map[string]string{
			"reactjs":             "react",
			"react.js":            "react",
			"vuejs":               "vue",
			"vue.js":              "vue",
			"nodejs":              "node.js",
			"golang":              "go",
			"postgresql":          "postgres",
			"amazon web services": "aws",
			"google cloud":        "gcp",
			"k8s":                 "kubernetes",
			"ml":                  "machine learning",
		},
	}
}
