package grading

// FieldResult records the full audit trail for one field: what was extracted,
// what it coerced to, what was expected and whether it passed. Reviewers rely
// on this to understand why a score was produced, so it is always complete
// even for malformed submissions.
type FieldResult struct {
	Key        string      `json:"key"`
	Raw        string      `json:"raw"`
	Value      interface{} `json:"value"`
	Expected   interface{} `json:"expected,omitempty"`
	Applicable bool        `json:"applicable"`
	Passed     bool        `json:"passed"`
	Error      string      `json:"error,omitempty"`
}

// GraderResult aggregates the field outcomes of a single grader.
type GraderResult struct {
	Name     string        `json:"name"`
	Weight   float64       `json:"weight"`
	Score    float64       `json:"score"`
	MaxScore float64       `json:"maxScore"`
	Passed   bool          `json:"passed"`
	Details  []FieldResult `json:"details"`
}

// EvaluationResult is the engine's output contract. It is persisted verbatim
// as a submission's grader_results payload, with PercentageScore duplicated
// into the submission's score column for querying and sorting.
type EvaluationResult struct {
	TotalScore      float64        `json:"totalScore"`
	MaxScore        float64        `json:"maxScore"`
	PercentageScore float64        `json:"percentageScore"`
	GraderResults   []GraderResult `json:"graderResults"`
}

// EvaluateGrader runs extraction and comparison for every field of one grader
// against the raw response. The only error it can return is a configuration
// error: malformed submissions degrade to failed field results instead.
func EvaluateGrader(rawResponse string, grader GraderConfig) (GraderResult, error) {
	fields, err := normalizeFields(grader)
	if err != nil {
		return GraderResult{}, err
	}

	cont := newContainer(grader.Type, rawResponse)

	result := GraderResult{
		Name:    grader.Name,
		Weight:  grader.Weight,
		Passed:  true,
		Details: make([]FieldResult, 0, len(fields)),
	}

	for _, f := range fields {
		fr := evaluateField(cont, f)
		result.Details = append(result.Details, fr)

		if !fr.Applicable {
			continue
		}

		result.MaxScore += f.weight
		if fr.Passed {
			result.Score += f.weight
		} else {
			result.Passed = false
		}
	}

	return result, nil
}

func evaluateField(cont container, f field) FieldResult {
	fr := FieldResult{
		Key:        f.key,
		Applicable: f.comparator.applicable(),
		Expected:   f.comparator.expectation(),
	}

	raw, ok := cont.extract(f.key)
	if !ok {
		fr.Error = "field not found in response"
		return fr
	}
	fr.Raw = raw

	value, err := coerce(raw, f.fieldType)
	if err != nil {
		fr.Error = err.Error()
		return fr
	}
	fr.Value = value

	if fr.Applicable {
		fr.Passed = compare(f.comparator, value)
	}

	return fr
}

// Aggregate folds grader results into the task-level totals. Each grader
// contributes in direct proportion to its declared weight, independent of how
// many fields it contains: contribution = weight * score/maxScore. Graders
// with no applicable field are a no-op on both totals.
func Aggregate(results []GraderResult) (totalScore, maxScore, percentageScore float64) {
	for _, r := range results {
		if r.MaxScore <= 0 {
			continue
		}
		weight := effectiveWeight(r.Weight)
		totalScore += weight * (r.Score / r.MaxScore)
		maxScore += weight
	}

	if maxScore <= 0 {
		return totalScore, maxScore, 0
	}

	percentageScore = totalScore / maxScore * 100
	if percentageScore < 0 {
		percentageScore = 0
	}
	if percentageScore > 100 {
		percentageScore = 100
	}

	return totalScore, maxScore, percentageScore
}

// effectiveWeight defaults an unset grader weight to 1 so configs that omit
// the field still score.
func effectiveWeight(weight float64) float64 {
	if weight <= 0 {
		return 1
	}
	return weight
}

// EvaluateResponse is the engine's single entry point: it evaluates every
// grader in order and aggregates the results. It is deterministic and
// side-effect free; identical inputs always produce identical results.
func EvaluateResponse(rawResponse string, graders []GraderConfig) (EvaluationResult, error) {
	graderResults := make([]GraderResult, 0, len(graders))
	for _, grader := range graders {
		result, err := EvaluateGrader(rawResponse, grader)
		if err != nil {
			return EvaluationResult{}, err
		}
		graderResults = append(graderResults, result)
	}

	total, max, percentage := Aggregate(graderResults)

	return EvaluationResult{
		TotalScore:      total,
		MaxScore:        max,
		PercentageScore: percentage,
		GraderResults:   graderResults,
	}, nil
}
