package model

import "time"

// TrainingExample is one feedback entry shaped for offline model training.
type TrainingExample struct {
	ID                string    `json:"id"`
	InputText         string    `json:"inputText"`
	TrueCategory      string    `json:"trueCategory"`
	PredictedCategory *string   `json:"predictedCategory"`
	TeamContext       string    `json:"teamContext"`
	Source            string    `json:"source"`
	Timestamp         time.Time `json:"timestamp"`
	WasCorrect        bool      `json:"wasCorrect"`
	ConfidenceScore   float64   `json:"confidenceScore"`
}

// TrainingDataset is a point-in-time snapshot of one or more team ledgers.
type TrainingDataset struct {
	GeneratedAt          time.Time         `json:"generatedAt"`
	Teams                []string          `json:"teams"`
	FromDate             time.Time         `json:"fromDate"`
	TrainingExamples     []TrainingExample `json:"trainingExamples"`
	CategoryDistribution map[string]int    `json:"categoryDistribution"`
	TeamDistribution     map[string]int    `json:"teamDistribution"`
}
