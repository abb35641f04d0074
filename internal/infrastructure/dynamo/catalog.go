package dynamo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/studiocoach/course-api/internal/domain"
)

// CourseRepo provides read-only access to the course catalog.
type CourseRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewCourseRepo(client *dynamodb.Client, tableName string) *CourseRepo {
	return &CourseRepo{client: client, tableName: tableName}
}

// ListPublished scans for published courses. The catalog holds a handful of
// documents, so a filtered scan is fine here.
func (r *CourseRepo) ListPublished(ctx context.Context) ([]domain.Course, error) {
	out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(r.tableName),
		FilterExpression: aws.String("published = :t"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t": &types.AttributeValueMemberBOOL{Value: true},
		},
	})
	if err != nil {
		return nil, err
	}
	var courses []domain.Course
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

func (r *CourseRepo) GetBySlug(ctx context.Context, slug string) (*domain.Course, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String("slug-index"),
		KeyConditionExpression:    aws.String("#s = :v"),
		ExpressionAttributeNames:  map[string]string{"#s": "slug"},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": &types.AttributeValueMemberS{Value: slug}},
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("course %s: %w", slug, domain.ErrNotFound)
	}
	var c domain.Course
	if err := attributevalue.UnmarshalMap(out.Items[0], &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// ChapterRepo provides read-only access to chapter documents.
type ChapterRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewChapterRepo(client *dynamodb.Client, tableName string) *ChapterRepo {
	return &ChapterRepo{client: client, tableName: tableName}
}

func (r *ChapterRepo) Get(ctx context.Context, chapterID string) (*domain.Chapter, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("chapter_id", chapterID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("chapter %s: %w", chapterID, domain.ErrNotFound)
	}
	var c domain.Chapter
	if err := attributevalue.UnmarshalMap(out.Item, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// GetMany resolves chapter references in the order given, skipping dangling
// ids so one bad reference doesn't break a whole course page.
func (r *ChapterRepo) GetMany(ctx context.Context, chapterIDs []string) ([]domain.Chapter, error) {
	chapters := make([]domain.Chapter, 0, len(chapterIDs))
	for _, id := range chapterIDs {
		c, err := r.Get(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, err
		}
		chapters = append(chapters, *c)
	}
	return chapters, nil
}
