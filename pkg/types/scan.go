// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package types

import "time"

// AssetType categorizes an existing code asset found by the scanner.
type AssetType string

const (
	AssetFunction  AssetType = "function"
	AssetClass     AssetType = "class"
	AssetInterface AssetType = "interface"
	AssetTypeDef   AssetType = "type"
	AssetConstant  AssetType = "constant"
	AssetComponent AssetType = "component"
)

// AssetReference points at a reusable declaration in the project.
type AssetReference struct {
	Type         AssetType `json:"type"`
	Name         string    `json:"name"`
	FilePath     string    `json:"file_path"`
	LineNumber   int       `json:"line_number"`
	Signature    string    `json:"signature,omitempty"`
	Description  string    `json:"description,omitempty"`
	Dependencies []string  `json:"dependencies,omitempty"`
}

// ScanResult is produced once per workflow before planning.
// It is not modified after creation.
type ScanResult struct {
	ScanID             string           `json:"scan_id"`
	Timestamp          time.Time        `json:"timestamp"`
	ProjectPath        string           `json:"project_path"`
	TotalFiles         int              `json:"total_files"`
	RelevantAssets     []AssetReference `json:"relevant_assets"`
	Recommendations    []string         `json:"recommendations"`
	ReuseOpportunities []AssetReference `json:"reuse_opportunities"`
	ConflictRisks      []AssetReference `json:"conflict_risks"`
}
