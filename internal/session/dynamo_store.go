package session

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/devdanielvaldez/autoclinic-bot/pkg/logging"
)

type dynamoAPI interface {
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(context.Context, *dynamodb.UpdateItemInput, ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Scan(context.Context, *dynamodb.ScanInput, ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// DynamoStore keeps one item per user keyed by user_id. Patches become
// UpdateItem SET expressions so untouched attributes keep their values.
type DynamoStore struct {
	client    dynamoAPI
	tableName string
	logger    *logging.Logger
	now       func() time.Time
}

func NewDynamoStore(client dynamoAPI, tableName string, logger *logging.Logger) *DynamoStore {
	if client == nil {
		panic("session: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("session: table name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &DynamoStore{
		client:    client,
		tableName: tableName,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *DynamoStore) Get(ctx context.Context, userID string) (*State, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            userKey(userID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("session: failed to load %s: %w", userID, err)
	}
	if out == nil || len(out.Item) == 0 {
		return nil, nil
	}
	st := newState(userID)
	if err := attributevalue.UnmarshalMap(out.Item, st); err != nil {
		return nil, fmt.Errorf("session: failed to decode %s: %w", userID, err)
	}
	if st.Mode == "" {
		st.Mode = ModeMenu
	}
	return st, nil
}

func (s *DynamoStore) Save(ctx context.Context, userID string, patch Patch) error {
	if patch.Empty() {
		return nil
	}
	names := map[string]string{"#updated": "updated_at"}
	values := map[string]types.AttributeValue{
		":updated": &types.AttributeValueMemberS{Value: s.now().Format(time.RFC3339Nano)},
	}
	sets := []string{"#updated = :updated"}

	add := func(placeholder, attr string, value types.AttributeValue) {
		names["#"+placeholder] = attr
		values[":"+placeholder] = value
		sets = append(sets, fmt.Sprintf("#%s = :%s", placeholder, placeholder))
	}
	if patch.PausedForHuman != nil {
		add("paused", "paused_for_human", &types.AttributeValueMemberBOOL{Value: *patch.PausedForHuman})
	}
	if patch.Mode != nil {
		add("mode", "mode", &types.AttributeValueMemberS{Value: string(*patch.Mode)})
	}
	if patch.Topic != nil {
		add("topic", "topic", &types.AttributeValueMemberS{Value: *patch.Topic})
	}
	if patch.WizardStep != nil {
		add("step", "wizard_step", &types.AttributeValueMemberN{Value: fmt.Sprint(*patch.WizardStep)})
	}
	if patch.WizardData != nil {
		data, err := attributevalue.Marshal(patch.WizardData)
		if err != nil {
			return fmt.Errorf("session: failed to marshal wizard data: %w", err)
		}
		add("data", "wizard_data", data)
	}
	if patch.AwaitingCode != nil {
		add("awaiting", "awaiting_code", &types.AttributeValueMemberBOOL{Value: *patch.AwaitingCode})
	}

	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.tableName),
		Key:                       userKey(userID),
		UpdateExpression:          aws.String("SET " + strings.Join(sets, ", ")),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	if err != nil {
		return fmt.Errorf("session: failed to save %s: %w", userID, err)
	}
	return nil
}

func (s *DynamoStore) Clear(ctx context.Context, userID string) error {
	return s.Save(ctx, userID, ClearPatch())
}

func (s *DynamoStore) ListPaused(ctx context.Context) ([]string, error) {
	var (
		users []string
		start map[string]types.AttributeValue
	)
	for {
		out, err := s.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:                aws.String(s.tableName),
			FilterExpression:         aws.String("#paused = :paused"),
			ProjectionExpression:     aws.String("user_id"),
			ExpressionAttributeNames: map[string]string{"#paused": "paused_for_human"},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":paused": &types.AttributeValueMemberBOOL{Value: true},
			},
			ExclusiveStartKey: start,
		})
		if err != nil {
			return nil, fmt.Errorf("session: failed to scan paused: %w", err)
		}
		for _, item := range out.Items {
			if v, ok := item["user_id"].(*types.AttributeValueMemberS); ok {
				users = append(users, v.Value)
			}
		}
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		start = out.LastEvaluatedKey
	}
	sort.Strings(users)
	return users, nil
}

func userKey(userID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"user_id": &types.AttributeValueMemberS{Value: userID},
	}
}
