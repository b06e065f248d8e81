package dto

// Task payloads published on the worker topic.

type IndexCaseTask struct {
	CaseId string `json:"case_id"`
}

type ComputeInsightsTask struct {
	CaseId string `json:"case_id"`
}

type RebuildUserIndexTask struct {
	UserId string `json:"user_id"`
}
