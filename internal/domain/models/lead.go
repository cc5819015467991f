// internal/domain/models/lead.go
package models

import "time"

// LeadEntry is the caller-supplied shape for adding an organization lead.
// Username is the member's directory email (netid@illinois.edu style); it is
// validated upstream before the saga runs.
type LeadEntry struct {
	Username        string `json:"username" dynamodbav:"username"`
	Name            string `json:"name,omitempty" dynamodbav:"name,omitempty"`
	Title           string `json:"title,omitempty" dynamodbav:"title,omitempty"`
	NonVotingMember bool   `json:"nonVotingMember" dynamodbav:"nonVotingMember"`
}

// LeadRecord is one person's leadership role at one organization. Existence
// of the record is the source of truth for "is this user currently a lead";
// there is at most one record per (org, username) pair.
type LeadRecord struct {
	// PrimaryKey is "LEAD#<org>", EntryID is the username.
	PrimaryKey string `dynamodbav:"primaryKey"`
	EntryID    string `dynamodbav:"entryId"`

	Username        string    `dynamodbav:"username"`
	Name            string    `dynamodbav:"name,omitempty"`
	Title           string    `dynamodbav:"title,omitempty"`
	NonVotingMember bool      `dynamodbav:"nonVotingMember"`
	UpdatedAt       time.Time `dynamodbav:"updatedAt"`
}

// OrgRole is a role a user holds at an organization, parsed from a record's
// partition key ("LEAD#ACM" → role LEAD, org ACM).
type OrgRole struct {
	Org  string `json:"org"`
	Role string `json:"role"`
}

// VotingLead is a voting lead row from the all-organizations report.
type VotingLead struct {
	Username string `json:"username"`
	Org      string `json:"org"`
	Name     string `json:"name,omitempty"`
	Title    string `json:"title,omitempty"`
}
