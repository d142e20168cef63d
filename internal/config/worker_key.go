package config

type WorkerKeyStruct struct {
	PersistAnswersQueue string
	PersistScoresQueue  string
	RescoreQueue        string
}

var WorkerKey = &WorkerKeyStruct{
	PersistAnswersQueue: "persist_answers_queue",
	PersistScoresQueue:  "persist_scores_queue",
	RescoreQueue:        "rescore_queue",
}

// Queues lists every work queue, in the order they are reported.
func (w *WorkerKeyStruct) Queues() []string {
	return []string{w.PersistAnswersQueue, w.PersistScoresQueue, w.RescoreQueue}
}
