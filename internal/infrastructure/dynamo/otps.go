package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/studiocoach/course-api/internal/domain"
)

// OtpRepo manages one-time login codes.
// PK: code_id; the email-created_at GSI serves all per-email queries.
type OtpRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewOtpRepo(client *dynamodb.Client, tableName string) *OtpRepo {
	return &OtpRepo{client: client, tableName: tableName}
}

func (r *OtpRepo) Put(ctx context.Context, c *domain.OtpCode) error {
	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return fmt.Errorf("marshal otp code: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// CreatedSince reports whether any code for email (used or not) was created
// after the given instant. Issuance uses this for the per-email cooldown.
func (r *OtpRepo) CreatedSince(ctx context.Context, email string, since time.Time) (bool, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("email-created_at-index"),
		KeyConditionExpression: aws.String("email = :e AND created_at > :t"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":e": &types.AttributeValueMemberS{Value: email},
			":t": &types.AttributeValueMemberS{Value: since.UTC().Format(time.RFC3339Nano)},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return false, err
	}
	return len(out.Items) > 0, nil
}

// ListByEmail returns all code rows for email, oldest first.
func (r *OtpRepo) ListByEmail(ctx context.Context, email string) ([]domain.OtpCode, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("email-created_at-index"),
		KeyConditionExpression: aws.String("email = :e"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":e": &types.AttributeValueMemberS{Value: email},
		},
	})
	if err != nil {
		return nil, err
	}
	var codes []domain.OtpCode
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &codes); err != nil {
		return nil, err
	}
	return codes, nil
}

// FindActive returns the most recent row matching (email, code, used=false).
// A wrong code simply doesn't match and yields ErrNotFound.
func (r *OtpRepo) FindActive(ctx context.Context, email, code string) (*domain.OtpCode, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("email-created_at-index"),
		KeyConditionExpression: aws.String("email = :e"),
		FilterExpression:       aws.String("#c = :c AND #u = :f"),
		ExpressionAttributeNames: map[string]string{
			"#c": "code",
			"#u": "used",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":e": &types.AttributeValueMemberS{Value: email},
			":c": &types.AttributeValueMemberS{Value: code},
			":f": &types.AttributeValueMemberBOOL{Value: false},
		},
		ScanIndexForward: aws.Bool(false), // newest first
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("otp code for %s: %w", email, domain.ErrNotFound)
	}
	var c domain.OtpCode
	if err := attributevalue.UnmarshalMap(out.Items[0], &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *OtpRepo) Update(ctx context.Context, codeID string, updates map[string]interface{}) error {
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("code_id", codeID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}

func (r *OtpRepo) Delete(ctx context.Context, codeID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("code_id", codeID),
	})
	return err
}
