package report

// GroupKey identifies one tested group inside a statistics map: a ratio
// group ("1".."5", "1-5") for the pair engines, an area combination
// ("A", "A+B", ...) for spot preference, or UserAreasKey for the single
// user-area chi-squared run.
type GroupKey string

// UserAreasKey keys the spot-preference chi-squared result, which runs
// once across the user-defined areas rather than per combination.
const UserAreasKey GroupKey = "user_defined"

// WilcoxonResult is a single non-repeated rank-sum test over one group.
type WilcoxonResult struct {
	NPlates      int     `json:"n_plates"`
	NValues      int     `json:"n_values"`
	PValue       float64 `json:"p_value"`
	Statistic    float64 `json:"statistic"` // rank-sum U
	MeanObserved float64 `json:"mean_observed"`
	MeanExpected float64 `json:"mean_expected"`
	Method       string  `json:"method"`
}

// WilcoxonRepeatResult accumulates significance votes over repeated
// rank-sum tests against freshly drawn null models. NAttraction counts
// repeats where the observed mean fell on the attraction side of the
// expected mean (for spot preference: the preference side); NRepulsion
// counts the opposite side (rejection for spot preference).
type WilcoxonRepeatResult struct {
	NPlates      int     `json:"n_plates"`
	NValues      int     `json:"n_values"`
	Repeats      int     `json:"repeats"`
	NSignificant int     `json:"n_significant"`
	NAttraction  int     `json:"n_attraction"`
	NRepulsion   int     `json:"n_repulsion"`
	MeanObserved float64 `json:"mean_observed"` // from the last repeat
	MeanExpected float64 `json:"mean_expected"`
}

// ChiSquaredResult is a goodness-of-fit test of observed frequencies
// against null-model probabilities. LowExpected flags the classic
// caveat of an expected frequency below 5; flagged results are reported,
// not dropped.
type ChiSquaredResult struct {
	NPlates       int       `json:"n_plates"`
	NValues       int       `json:"n_values"`
	Statistic     float64   `json:"statistic"`
	PValue        float64   `json:"p_value"`
	DF            int       `json:"df"`
	MeanObserved  float64   `json:"mean_observed"`
	MeanExpected  float64   `json:"mean_expected"`
	ExpectedFreqs []float64 `json:"expected_freqs"`
	LowExpected   bool      `json:"low_expected"`
}
