package grading

// ExportGraders produces a sanitized deep copy of a grader list for use as a
// re-importable template: every comparator expectation and test case expected
// value is cleared while field order and every other attribute are preserved
// exactly. The input is never mutated.
func ExportGraders(graders []GraderConfig) []GraderConfig {
	exported := make([]GraderConfig, 0, len(graders))
	for _, grader := range graders {
		exported = append(exported, exportGrader(grader))
	}
	return exported
}

func exportGrader(grader GraderConfig) GraderConfig {
	out := grader

	if len(grader.Config.Structure) > 0 {
		structure := make([]StructureField, len(grader.Config.Structure))
		copy(structure, grader.Config.Structure)
		for i := range structure {
			structure[i].Comparator.Config.Expected = nil
		}
		out.Config.Structure = structure
	}

	if len(grader.Config.TestCases) > 0 {
		testCases := make([]TestCase, len(grader.Config.TestCases))
		copy(testCases, grader.Config.TestCases)
		for i := range testCases {
			testCases[i].ExpectedValue = nil
			testCases[i].Comparator.Config.Expected = nil
		}
		out.Config.TestCases = testCases
	}

	return out
}
