// internal/app/store/leads/leadstore.go
package leadstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/acm-uiuc/core-sub001/internal/app/store/audit"
	"github.com/acm-uiuc/core-sub001/internal/app/store/dynamo"
	"github.com/acm-uiuc/core-sub001/internal/domain/models"
)

// usernameIndex is the GSI keyed by username, used for per-user role lookups.
const usernameIndex = "UsernameIndex"

var (
	// ErrAlreadyLead reports an add conditioned on absence finding the
	// record already present. Expected idempotent outcome, not a failure.
	ErrAlreadyLead = errors.New("user is already a lead of this organization")

	// ErrNotLead reports a remove conditioned on presence finding no record.
	ErrNotLead = errors.New("user is not a lead of this organization")
)

func leadPK(org string) string   { return "LEAD#" + org }
func definePK(org string) string { return "DEFINE#" + org }

// Store manages LeadRecord rows and the org metadata rows that share the
// same table. Record mutations are paired transactionally with an audit
// entry: the change and its trail succeed or fail as one unit.
type Store struct {
	db    dynamo.API
	tx    *dynamo.Transactor
	audit *audit.Store
	table string
	orgs  []string
	log   *zap.Logger
}

// New creates a lead Store. orgs is the set of known organization ids,
// used to validate role rows and to fan out the voting-leads report.
func New(db dynamo.API, tx *dynamo.Transactor, auditStore *audit.Store, table string, orgs []string, logger *zap.Logger) *Store {
	return &Store{db: db, tx: tx, audit: auditStore, table: table, orgs: orgs, log: logger}
}

// Get returns the lead record for (org, username), or nil when the user is
// not currently a lead. Uses a consistent read: callers decide on the result
// while holding the per-user lock.
func (s *Store) Get(ctx context.Context, org, username string) (*models.LeadRecord, error) {
	out, err := s.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"primaryKey": &types.AttributeValueMemberS{Value: leadPK(org)},
			"entryId":    &types.AttributeValueMemberS{Value: username},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get lead %s/%s: %w", org, username, err)
	}
	if out.Item == nil {
		return nil, nil
	}
	var rec models.LeadRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal lead %s/%s: %w", org, username, err)
	}
	return &rec, nil
}

// Add writes the lead record, conditioned on it not existing, together with
// the audit entry. Returns ErrAlreadyLead when the record is present.
func (s *Store) Add(ctx context.Context, org string, lead models.LeadEntry, entry models.AuditLogEntry) error {
	rec := models.LeadRecord{
		PrimaryKey:      leadPK(org),
		EntryID:         lead.Username,
		Username:        lead.Username,
		Name:            lead.Name,
		Title:           lead.Title,
		NonVotingMember: lead.NonVotingMember,
		UpdatedAt:       time.Now().UTC(),
	}
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal lead %s/%s: %w", org, lead.Username, err)
	}

	auditPut, err := s.audit.BuildTransactPut(entry)
	if err != nil {
		return err
	}

	items := []types.TransactWriteItem{
		auditPut,
		{
			Put: &types.Put{
				TableName:           aws.String(s.table),
				Item:                item,
				ConditionExpression: aws.String("attribute_not_exists(primaryKey) AND attribute_not_exists(entryId)"),
			},
		},
	}

	err = s.tx.Write(ctx, fmt.Sprintf("add lead %s to %s", lead.Username, org), items)
	if errors.Is(err, dynamo.ErrConditionFailed) {
		return ErrAlreadyLead
	}
	return err
}

// Remove deletes the lead record, conditioned on it existing, together with
// the audit entry. Returns ErrNotLead when there is nothing to remove.
func (s *Store) Remove(ctx context.Context, org, username string, entry models.AuditLogEntry) error {
	auditPut, err := s.audit.BuildTransactPut(entry)
	if err != nil {
		return err
	}

	items := []types.TransactWriteItem{
		auditPut,
		{
			Delete: &types.Delete{
				TableName: aws.String(s.table),
				Key: map[string]types.AttributeValue{
					"primaryKey": &types.AttributeValueMemberS{Value: leadPK(org)},
					"entryId":    &types.AttributeValueMemberS{Value: username},
				},
				ConditionExpression: aws.String("attribute_exists(primaryKey) AND attribute_exists(entryId)"),
			},
		},
	}

	err = s.tx.Write(ctx, fmt.Sprintf("remove lead %s from %s", username, org), items)
	if errors.Is(err, dynamo.ErrConditionFailed) {
		return ErrNotLead
	}
	return err
}

// LeadsForOrg lists the current leads of one organization.
func (s *Store) LeadsForOrg(ctx context.Context, org string) ([]models.LeadRecord, error) {
	out, err := s.db.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		KeyConditionExpression: aws.String("primaryKey = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: leadPK(org)},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("query leads for %s: %w", org, err)
	}

	leads := make([]models.LeadRecord, 0, len(out.Items))
	for _, item := range out.Items {
		var rec models.LeadRecord
		if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
			s.log.Warn("skipping unreadable lead record", zap.String("org", org), zap.Error(err))
			continue
		}
		if rec.Username == "" {
			continue
		}
		leads = append(leads, rec)
	}
	return leads, nil
}

// OrgMetadata returns the DEFINE# row for an organization, or an empty map
// when none has been written yet.
func (s *Store) OrgMetadata(ctx context.Context, org string) (map[string]any, error) {
	out, err := s.db.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		KeyConditionExpression: aws.String("primaryKey = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: definePK(org)},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("query metadata for %s: %w", org, err)
	}
	if len(out.Items) == 0 {
		s.log.Debug("no metadata row for org, returning default", zap.String("org", org))
		return map[string]any{}, nil
	}

	var metadata map[string]any
	if err := attributevalue.UnmarshalMap(out.Items[0], &metadata); err != nil {
		return nil, fmt.Errorf("unmarshal metadata for %s: %w", org, err)
	}
	metadata["id"] = org
	delete(metadata, "primaryKey")
	delete(metadata, "entryId")
	return metadata, nil
}

// RolesForUser returns the org roles a user holds, via the username GSI.
// Rows with malformed keys or unknown orgs are skipped with a warning.
func (s *Store) RolesForUser(ctx context.Context, username string) ([]models.OrgRole, error) {
	out, err := s.db.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		IndexName:              aws.String(usernameIndex),
		KeyConditionExpression: aws.String("username = :username"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":username": &types.AttributeValueMemberS{Value: username},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("query roles for %s: %w", username, err)
	}

	known := make(map[string]bool, len(s.orgs))
	for _, org := range s.orgs {
		known[org] = true
	}

	var roles []models.OrgRole
	for _, item := range out.Items {
		var row struct {
			PrimaryKey string `dynamodbav:"primaryKey"`
		}
		if err := attributevalue.UnmarshalMap(item, &row); err != nil {
			s.log.Warn("skipping unreadable role row", zap.Error(err))
			continue
		}
		role, org, ok := strings.Cut(row.PrimaryKey, "#")
		if !ok {
			s.log.Warn("invalid key in role row", zap.String("primaryKey", row.PrimaryKey))
			continue
		}
		if role != "LEAD" {
			s.log.Warn("invalid role in role row", zap.String("primaryKey", row.PrimaryKey))
			continue
		}
		if !known[org] {
			s.log.Warn("unknown org in role row", zap.String("primaryKey", row.PrimaryKey))
			continue
		}
		roles = append(roles, models.OrgRole{Org: org, Role: role})
	}
	return roles, nil
}

// VotingLeads returns all voting leads across every known organization.
// Organizations are queried in parallel; results come back sorted by org
// then username so the report is stable.
func (s *Store) VotingLeads(ctx context.Context) ([]models.VotingLead, error) {
	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		firstErr error
		all      []models.VotingLead
	)

	for _, org := range s.orgs {
		wg.Add(1)
		go func(org string) {
			defer wg.Done()
			leads, err := s.LeadsForOrg(ctx, org)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = fmt.Errorf("voting leads for %s: %w", org, err)
				}
				return
			}
			for _, lead := range leads {
				if lead.NonVotingMember {
					continue
				}
				all = append(all, models.VotingLead{
					Username: lead.Username,
					Org:      org,
					Name:     lead.Name,
					Title:    lead.Title,
				})
			}
		}(org)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Org != all[j].Org {
			return all[i].Org < all[j].Org
		}
		return all[i].Username < all[j].Username
	})
	return all, nil
}

// IsVotingLead reports whether the user is a voting lead of at least one
// organization (the exec-council membership rule).
func (s *Store) IsVotingLead(ctx context.Context, username string) (bool, error) {
	for _, org := range s.orgs {
		rec, err := s.Get(ctx, org, username)
		if err != nil {
			return false, err
		}
		if rec != nil && !rec.NonVotingMember {
			return true, nil
		}
	}
	return false, nil
}
