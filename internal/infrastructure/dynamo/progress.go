package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/studiocoach/course-api/internal/domain"
)

// ProgressRepo manages per-user chapter completion records.
// PK: progress_id; the user_email-completed_at GSI serves per-user reads.
type ProgressRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewProgressRepo(client *dynamodb.Client, tableName string) *ProgressRepo {
	return &ProgressRepo{client: client, tableName: tableName}
}

func (r *ProgressRepo) Put(ctx context.Context, p *domain.UserProgress) error {
	item, err := attributevalue.MarshalMap(p)
	if err != nil {
		return fmt.Errorf("marshal progress: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// GetByUserChapter returns the single record for (userEmail, chapterID).
// This always hits the store — the decision to create vs patch must read
// current truth, never a cached copy.
func (r *ProgressRepo) GetByUserChapter(ctx context.Context, userEmail, chapterID string) (*domain.UserProgress, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("user_email-completed_at-index"),
		KeyConditionExpression: aws.String("user_email = :e"),
		FilterExpression:       aws.String("chapter_id = :c"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":e": &types.AttributeValueMemberS{Value: userEmail},
			":c": &types.AttributeValueMemberS{Value: chapterID},
		},
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("progress for %s/%s: %w", userEmail, chapterID, domain.ErrNotFound)
	}
	var p domain.UserProgress
	if err := attributevalue.UnmarshalMap(out.Items[0], &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListCompletedByUser returns completed records, most recent first.
func (r *ProgressRepo) ListCompletedByUser(ctx context.Context, userEmail string) ([]domain.UserProgress, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("user_email-completed_at-index"),
		KeyConditionExpression: aws.String("user_email = :e"),
		FilterExpression:       aws.String("completed = :t"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":e": &types.AttributeValueMemberS{Value: userEmail},
			":t": &types.AttributeValueMemberBOOL{Value: true},
		},
		ScanIndexForward: aws.Bool(false), // completed_at descending
	})
	if err != nil {
		return nil, err
	}
	var records []domain.UserProgress
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *ProgressRepo) Update(ctx context.Context, progressID string, updates map[string]interface{}) error {
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("progress_id", progressID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}
