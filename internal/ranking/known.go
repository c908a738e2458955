package ranking

import "github.com/helixir/conference-catalog-service/internal/domain"

// knownConferences maps well-known conference acronyms to rank letters.
// Keys are uppercase.
var knownConferences = map[string]string{
	// Machine learning and AI
	"NEURIPS": domain.RankA,
	"NIPS":    domain.RankA,
	"ICML":    domain.RankA,
	"ICLR":    domain.RankA,
	"AAAI":    domain.RankB,
	"IJCAI":   domain.RankB,
	"KDD":     domain.RankB,

	// NLP
	"ACL":   domain.RankA,
	"EMNLP": domain.RankA,
	"NAACL": domain.RankA,

	// Computer vision
	"CVPR": domain.RankA,
	"ICCV": domain.RankA,
	"ECCV": domain.RankA,

	// Security
	"CCS":      domain.RankA,
	"USENIX":   domain.RankA,
	"IEEE S&P": domain.RankA,

	// Systems
	"OSDI": domain.RankA,
	"SOSP": domain.RankA,
	"NSDI": domain.RankB,

	// Databases
	"SIGMOD": domain.RankB,
	"VLDB":   domain.RankB,
	"PODS":   domain.RankB,

	// Software engineering
	"ICSE": domain.RankB,
	"FSE":  domain.RankB,
	"ASE":  domain.RankB,

	// Theory
	"STOC": domain.RankA,
	"FOCS": domain.RankA,
	"SODA": domain.RankA,

	// Robotics
	"ICRA": domain.RankB,
	"IROS": domain.RankB,
	"RSS":  domain.RankB,
}
