package storage

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/rs/zerolog"

	"github.com/avelkins10/kin-communications-platform-sub002/internal/types"
)

// DynamoDBStore implements Store using AWS DynamoDB
type DynamoDBStore struct {
	client *dynamodb.Client
	config DynamoConfig
	logger zerolog.Logger
}

// NewDynamoDBStore creates a new DynamoDB store
func NewDynamoDBStore(ctx context.Context, cfg DynamoConfig, logger zerolog.Logger) (*DynamoDBStore, error) {
	var client *dynamodb.Client

	if cfg.Mode == DynamoModeLocal {
		// For local mode, build the client directly without LoadDefaultConfig.
		// LoadDefaultConfig probes the EC2 IMDS endpoint which hangs on EC2
		// instances when static credentials are intended.
		client = dynamodb.New(dynamodb.Options{
			Region:       cfg.Region,
			BaseEndpoint: aws.String(cfg.Endpoint),
			Credentials:  credentials.NewStaticCredentialsProvider("local", "local", ""),
		})
	} else {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		client = dynamodb.NewFromConfig(awsCfg)
	}

	store := &DynamoDBStore{
		client: client,
		config: cfg,
		logger: logger,
	}

	// Create tables in local mode
	if cfg.Mode == DynamoModeLocal {
		if err := CreateTablesIfNotExist(ctx, client, cfg, logger); err != nil {
			return nil, err
		}
	}

	logger.Info().
		Str("mode", string(cfg.Mode)).
		Str("region", cfg.Region).
		Msg("DynamoDB store initialized")

	return store, nil
}

// GetEnabledRules scans the rules table for enabled rules. The table is
// small (tens of rules), so a filtered scan per routing call is fine.
func (s *DynamoDBStore) GetEnabledRules(ctx context.Context) ([]types.RoutingRule, error) {
	filter := expression.Name("Enabled").Equal(expression.Value(true))
	expr, err := expression.NewBuilder().WithFilter(filter).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	result, err := s.client.Scan(ctx, &dynamodb.ScanInput{
		TableName:                 aws.String(s.config.RulesTable),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan routing rules: %w", err)
	}

	var rules []types.RoutingRule
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &rules); err != nil {
		return nil, fmt.Errorf("failed to unmarshal routing rules: %w", err)
	}
	return rules, nil
}

// SaveRule upserts a routing rule
func (s *DynamoDBStore) SaveRule(ctx context.Context, rule types.RoutingRule) error {
	item, err := attributevalue.MarshalMap(rule)
	if err != nil {
		return fmt.Errorf("failed to marshal routing rule: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.config.RulesTable),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to save routing rule: %w", err)
	}
	return nil
}

// GetAvailableWorkers scans the workers table for available workers
func (s *DynamoDBStore) GetAvailableWorkers(ctx context.Context) ([]types.Worker, error) {
	filter := expression.Name("Available").Equal(expression.Value(true))
	expr, err := expression.NewBuilder().WithFilter(filter).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	result, err := s.client.Scan(ctx, &dynamodb.ScanInput{
		TableName:                 aws.String(s.config.WorkersTable),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan workers: %w", err)
	}

	var workers []types.Worker
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &workers); err != nil {
		return nil, fmt.Errorf("failed to unmarshal workers: %w", err)
	}
	return workers, nil
}

// SaveWorker upserts a worker profile
func (s *DynamoDBStore) SaveWorker(ctx context.Context, worker types.Worker) error {
	item, err := attributevalue.MarshalMap(worker)
	if err != nil {
		return fmt.Errorf("failed to marshal worker: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.config.WorkersTable),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to save worker: %w", err)
	}
	return nil
}

// SaveRoutingRecord persists one routing decision
func (s *DynamoDBStore) SaveRoutingRecord(ctx context.Context, record types.RoutingRecord) error {
	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("failed to marshal routing record: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.config.RoutingRecordsTable),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to save routing record: %w", err)
	}
	return nil
}

// GetRoutingRecords returns the routing decisions for one day
func (s *DynamoDBStore) GetRoutingRecords(ctx context.Context, dateKey string) ([]types.RoutingRecord, error) {
	keyCond := expression.Key("DateKey").Equal(expression.Value(dateKey))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	result, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(s.config.RoutingRecordsTable),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query routing records: %w", err)
	}

	var records []types.RoutingRecord
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &records); err != nil {
		return nil, fmt.Errorf("failed to unmarshal routing records: %w", err)
	}
	return records, nil
}

// NewStore creates the appropriate store based on configuration
func NewStore(ctx context.Context, logger zerolog.Logger) (Store, error) {
	cfg := LoadDynamoConfig()

	switch cfg.Mode {
	case DynamoModeLocal, DynamoModeAWS:
		return NewDynamoDBStore(ctx, cfg, logger)
	default:
		logger.Info().Msg("DynamoDB disabled (DYNAMO_MODE=none)")
		return NewNoopStore(), nil
	}
}
