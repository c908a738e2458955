package domain

// Classification places a conference in the research field taxonomy.
type Classification struct {
	Primary    string   `json:"primary"`
	Secondary  []string `json:"secondary"`
	Confidence float64  `json:"confidence"`
	Reasoning  string   `json:"reasoning"`
}

// Rank letters.
const (
	RankA = "A"
	RankB = "B"
	RankC = "C"
)

// RankMethod identifies which tier of the rank aggregator produced a result.
type RankMethod string

const (
	RankMethodCoreAPI     RankMethod = "core_api"
	RankMethodKnownList   RankMethod = "known_list"
	RankMethodAlgorithmic RankMethod = "algorithmic"
	RankMethodDefault     RankMethod = "default"
)

// RankSource identifies where rank data came from.
type RankSource string

const (
	RankSourceCore  RankSource = "core"
	RankSourceLocal RankSource = "local"
)

// CoreRanking is the venue record returned by the external ranking source.
type CoreRanking struct {
	DisplayName   string  `json:"display_name"`
	Rank          string  `json:"rank,omitempty"`
	HIndex        *int    `json:"h_index"`
	CitationCount int     `json:"citation_count"`
	PaperCount    int     `json:"paper_count"`
	Confidence    float64 `json:"confidence"`
}

// RankResult is the composite quality rank of a conference.
type RankResult struct {
	Rank      string       `json:"rank"`
	Score     int          `json:"score"`
	Method    RankMethod   `json:"method"`
	Factors   []string     `json:"factors"`
	Reasoning string       `json:"reasoning"`
	Source    RankSource   `json:"source"`
	CoreData  *CoreRanking `json:"core_data,omitempty"`
}
