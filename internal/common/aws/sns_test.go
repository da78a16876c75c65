// internal/common/aws/sns_test.go
package aws

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"garden-planner/internal/models"
)

type fakeSNS struct {
	inputs []*sns.PublishInput
	err    error
}

func (f *fakeSNS) Publish(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: awssdk.String("msg-1")}, nil
}

func createPlan() *models.GardenPlan {
	return &models.GardenPlan{
		ID:               "plan-1",
		CreatedAt:        time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		Request:          models.PlanRequest{LocationCode: "K1A 0A6", PlantNames: []string{"Tomato", "Ghost"}},
		Climate:          models.ClimateProfile{LocationCode: "K1A 0A6", HardinessZone: "4a-6a"},
		Plants:           []models.PlantRecord{{Name: "Tomato", Key: "tomato"}},
		UnresolvedPlants: []string{"Ghost"},
		Sections:         models.PlanSections{Schedules: models.SectionDefault, Tips: models.SectionGenerated},
	}
}

func TestPlanPublisher_PublishPlanCreated(t *testing.T) {
	fake := &fakeSNS{}
	pub := NewPlanPublisher(&SNSClient{client: fake}, "arn:aws:sns:us-east-1:123456789012:garden-plans")

	require.NoError(t, pub.PublishPlanCreated(context.Background(), createPlan()))
	require.Len(t, fake.inputs, 1)

	in := fake.inputs[0]
	assert.Equal(t, "arn:aws:sns:us-east-1:123456789012:garden-plans", awssdk.ToString(in.TopicArn))
	assert.Equal(t, EventPlanCreated, awssdk.ToString(in.MessageAttributes["eventType"].StringValue))
	assert.Equal(t, "plan-1", awssdk.ToString(in.MessageAttributes["planId"].StringValue))

	var event PlanCreatedEvent
	require.NoError(t, json.Unmarshal([]byte(awssdk.ToString(in.Message)), &event))
	assert.Equal(t, "plan-1", event.PlanID)
	assert.Equal(t, []string{"Tomato"}, event.PlantNames)
	assert.Equal(t, []string{"Ghost"}, event.UnresolvedPlants)
	assert.Equal(t, "4a-6a", event.HardinessZone)
	assert.Equal(t, models.SectionDefault, event.Sections.Schedules)
}

func TestPlanPublisher_Errors(t *testing.T) {
	fake := &fakeSNS{err: errors.New("throttled")}

	noTopic := NewPlanPublisher(&SNSClient{client: fake}, "")
	assert.ErrorIs(t, noTopic.PublishPlanCreated(context.Background(), createPlan()), ErrNoTopic)
	assert.Empty(t, fake.inputs)

	pub := NewPlanPublisher(&SNSClient{client: fake}, "arn:topic")
	err := pub.PublishPlanCreated(context.Background(), createPlan())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish plan plan-1")
	assert.Contains(t, err.Error(), "throttled")
}
