// internal/common/aws/sns.go
package aws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"

	"garden-planner/internal/models"
)

// EventPlanCreated is the eventType attribute of plan creation messages.
const EventPlanCreated = "garden_plan.created"

var ErrNoTopic = errors.New("sns topic arn is empty")

// snsAPI is the subset of *sns.Client the publisher needs.
type snsAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type SNSClient struct {
	client snsAPI
}

func NewSNSClient(ctx context.Context, region string) (*SNSClient, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &SNSClient{client: sns.NewFromConfig(cfg)}, nil
}

func (s *SNSClient) Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error) {
	return s.client.Publish(ctx, input)
}

// PlanCreatedEvent is the message body published for every assembled plan.
type PlanCreatedEvent struct {
	EventType        string              `json:"eventType"`
	PlanID           string              `json:"planId"`
	CreatedAt        time.Time           `json:"createdAt"`
	LocationCode     string              `json:"locationCode"`
	HardinessZone    string              `json:"hardinessZone,omitempty"`
	PlantNames       []string            `json:"plantNames"`
	UnresolvedPlants []string            `json:"unresolvedPlants,omitempty"`
	Sections         models.PlanSections `json:"sections"`
}

// PlanPublisher announces new garden plans on an SNS topic.
type PlanPublisher struct {
	sns      *SNSClient
	topicARN string
}

func NewPlanPublisher(client *SNSClient, topicARN string) *PlanPublisher {
	return &PlanPublisher{sns: client, topicARN: topicARN}
}

func (p *PlanPublisher) PublishPlanCreated(ctx context.Context, plan *models.GardenPlan) error {
	if p.topicARN == "" {
		return ErrNoTopic
	}
	if plan == nil {
		return errors.New("nil plan")
	}

	summary := plan.Summary()
	body, err := json.Marshal(PlanCreatedEvent{
		EventType:        EventPlanCreated,
		PlanID:           plan.ID,
		CreatedAt:        plan.CreatedAt,
		LocationCode:     plan.Request.LocationCode,
		HardinessZone:    plan.Climate.HardinessZone,
		PlantNames:       summary.PlantNames,
		UnresolvedPlants: plan.UnresolvedPlants,
		Sections:         plan.Sections,
	})
	if err != nil {
		return fmt.Errorf("encode plan event: %w", err)
	}

	_, err = p.sns.Publish(ctx, &sns.PublishInput{
		TopicArn: awssdk.String(p.topicARN),
		Message:  awssdk.String(string(body)),
		Subject:  awssdk.String("Garden plan created"),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"eventType": {DataType: awssdk.String("String"), StringValue: awssdk.String(EventPlanCreated)},
			"planId":    {DataType: awssdk.String("String"), StringValue: awssdk.String(plan.ID)},
		},
	})
	if err != nil {
		return fmt.Errorf("publish plan %s: %w", plan.ID, err)
	}
	return nil
}
