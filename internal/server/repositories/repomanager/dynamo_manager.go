package repomanager

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/dmitrijs2005/userreg/internal/server/awsx"
	"github.com/dmitrijs2005/userreg/internal/server/config"
	"github.com/dmitrijs2005/userreg/internal/server/repositories/users"
)

var (
	loadAWSConfig = awsx.LoadConfig

	newDynamoClient = func(cfg aws.Config, endpoint string) users.DynamoAPI {
		return users.NewDynamoClient(cfg, endpoint)
	}
)

// DynamoRepositoryManager vends the DynamoDB-backed users repository.
type DynamoRepositoryManager struct {
	repo *users.DynamoRepository
}

// NewDynamoRepositoryManager builds the DynamoDB client once. With
// cfg.CreateTable set the users table is created when missing.
func NewDynamoRepositoryManager(ctx context.Context, cfg *config.Config) (*DynamoRepositoryManager, error) {
	awsCfg, err := loadAWSConfig(ctx, awsx.Options{
		Region:          cfg.AWSRegion,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
	})
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	repo := users.NewDynamoRepository(newDynamoClient(awsCfg, cfg.DynamoDBEndpoint), cfg.UsersTable)

	if cfg.CreateTable {
		if err := repo.EnsureTable(ctx); err != nil {
			return nil, err
		}
	}

	return &DynamoRepositoryManager{repo: repo}, nil
}

func (m *DynamoRepositoryManager) Users() users.Repository { return m.repo }

func (m *DynamoRepositoryManager) Close() error { return nil }
