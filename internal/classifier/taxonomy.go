package classifier

import "strings"

// Research field names.
const (
	FieldMachineLearning     = "Machine Learning"
	FieldNLP                 = "Natural Language Processing"
	FieldComputerVision      = "Computer Vision"
	FieldRobotics            = "Robotics"
	FieldHCI                 = "Human-Computer Interaction"
	FieldSoftwareEngineering = "Software Engineering"
	FieldSecurity            = "Security"
	FieldDatabaseSystems     = "Database Systems"
	FieldDistributedSystems  = "Distributed Systems"
	FieldWebTechnology       = "Web Technology"
	FieldBioinformatics      = "Bioinformatics"
	FieldDataScience         = "Data Science"
	FieldTheory              = "Theory"
)

// Field is one taxonomy entry: a research area and the keywords that signal it.
type Field struct {
	Name     string
	Keywords []string
}

// Taxonomy is an ordered list of fields. Order breaks score ties.
type Taxonomy []Field

// NewTaxonomy lowercases and de-duplicates each field's keywords, keeping
// first-seen order. Fields with no keywords are dropped.
func NewTaxonomy(fields []Field) Taxonomy {
	t := make(Taxonomy, 0, len(fields))
	for _, f := range fields {
		seen := make(map[string]struct{}, len(f.Keywords))
		keywords := make([]string, 0, len(f.Keywords))
		for _, k := range f.Keywords {
			k = strings.ToLower(strings.TrimSpace(k))
			if k == "" {
				continue
			}
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			keywords = append(keywords, k)
		}
		if len(keywords) > 0 {
			t = append(t, Field{Name: f.Name, Keywords: keywords})
		}
	}
	return t
}

// DefaultTaxonomy is the built-in research field taxonomy.
//
// Keywords match as plain substrings, so short keywords such as "ai" or "ui"
// also match inside longer words. Scores depend on that behavior.
var DefaultTaxonomy = NewTaxonomy([]Field{
	{FieldMachineLearning, []string{
		"machine learning", "deep learning", "neural network", "neural", "ai",
		"artificial intelligence", "learning", "algorithm", "model", "prediction",
	}},
	{FieldNLP, []string{
		"nlp", "language", "text", "translation", "semantic",
		"natural language", "linguistic", "corpus",
	}},
	{FieldComputerVision, []string{
		"vision", "image", "visual", "video", "detection", "recognition", "segmentation",
		"convolutional", "cnn", "object", "scene",
	}},
	{FieldRobotics, []string{
		"robot", "robotic", "autonomous", "control", "manipulation", "motion", "navigation",
	}},
	{FieldHCI, []string{
		"hci", "interaction", "interface", "user experience", "ux", "ui",
		"usability", "user study", "interaction design",
	}},
	{FieldSoftwareEngineering, []string{
		"software", "testing", "development", "programming", "architecture",
		"code", "refactoring", "debugging", "devops", "agile",
	}},
	{FieldSecurity, []string{
		"security", "cryptography", "encryption", "malware", "attack", "vulnerability",
		"privacy", "authentication", "authorization",
	}},
	{FieldDatabaseSystems, []string{
		"database", "sql", "query", "transaction", "data management", "indexing",
		"distributed database", "nosql",
	}},
	{FieldDistributedSystems, []string{
		"distributed", "concurrency", "parallel", "cluster", "consensus",
		"byzantine", "replication", "blockchain",
	}},
	{FieldWebTechnology, []string{
		"web", "http", "browser", "javascript", "html", "css", "web framework",
		"web service", "api", "rest",
	}},
	{FieldBioinformatics, []string{
		"bioinformatics", "genetics", "protein", "sequence", "biology", "dna",
		"genomics", "computational biology", "medical",
	}},
	{FieldDataScience, []string{
		"data", "analytics", "big data", "data mining", "visualization", "statistics",
		"data processing", "data warehouse",
	}},
	{FieldTheory, []string{
		"theory", "complexity", "algorithm", "formal", "proof", "computational complexity",
		"decidability", "p vs np",
	}},
})
