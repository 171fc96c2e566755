package db

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// Clients bundles the AWS service clients a function needs.
type Clients struct {
	Dynamo *dynamodb.Client
	SNS    *sns.Client
	SSM    *ssm.Client
}

func LoadAWSConfig(ctx context.Context) (aws.Config, error) {
	// Uses Lambda’s execution role creds automatically
	return config.LoadDefaultConfig(ctx)
}

func NewClients(ctx context.Context) (*Clients, error) {
	cfg, err := LoadAWSConfig(ctx)
	if err != nil {
		return nil, err
	}
	return &Clients{
		Dynamo: dynamodb.NewFromConfig(cfg),
		SNS:    sns.NewFromConfig(cfg),
		SSM:    ssm.NewFromConfig(cfg),
	}, nil
}
