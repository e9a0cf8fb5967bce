package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

type fakeSQS struct {
	sends    []*sqs.SendMessageInput
	receives []*sqs.ReceiveMessageInput
	deletes  []*sqs.DeleteMessageInput
	messages []sqstypes.Message
	err      error
}

func (f *fakeSQS) SendMessage(_ context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.sends = append(f.sends, in)
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.SendMessageOutput{MessageId: aws.String("m-1")}, nil
}

func (f *fakeSQS) ReceiveMessage(_ context.Context, in *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	f.receives = append(f.receives, in)
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.ReceiveMessageOutput{Messages: f.messages}, nil
}

func (f *fakeSQS) DeleteMessage(_ context.Context, in *sqs.DeleteMessageInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	f.deletes = append(f.deletes, in)
	return &sqs.DeleteMessageOutput{}, f.err
}

func TestSQS_SendStandard(t *testing.T) {
	fake := &fakeSQS{}
	q := NewSQS(fake)

	id, err := q.Send(context.Background(), "https://sqs/q", []byte("body"), SendOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "m-1" {
		t.Errorf("expected id m-1, got %q", id)
	}

	in := fake.sends[0]
	if aws.ToString(in.QueueUrl) != "https://sqs/q" || aws.ToString(in.MessageBody) != "body" {
		t.Errorf("unexpected send input %+v", in)
	}
	if in.MessageGroupId != nil || in.MessageDeduplicationId != nil {
		t.Error("expected no FIFO parameters for standard send")
	}
	if in.MessageAttributes != nil {
		t.Error("expected no message attributes")
	}
}

func TestSQS_SendFIFO(t *testing.T) {
	fake := &fakeSQS{}
	q := NewSQS(fake)

	_, err := q.Send(context.Background(), "https://sqs/q.fifo", []byte("body"), SendOptions{
		GroupID:         "org-1",
		DeduplicationID: "abc",
		Attributes:      map[string]string{"commandType": "updateOrganization"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	in := fake.sends[0]
	if aws.ToString(in.MessageGroupId) != "org-1" {
		t.Errorf("expected group org-1, got %q", aws.ToString(in.MessageGroupId))
	}
	if aws.ToString(in.MessageDeduplicationId) != "abc" {
		t.Errorf("expected dedup abc, got %q", aws.ToString(in.MessageDeduplicationId))
	}
	attr := in.MessageAttributes["commandType"]
	if aws.ToString(attr.StringValue) != "updateOrganization" || aws.ToString(attr.DataType) != "String" {
		t.Errorf("unexpected attribute %+v", attr)
	}
}

func TestSQS_SendError(t *testing.T) {
	boom := errors.New("boom")
	q := NewSQS(&fakeSQS{err: boom})

	if _, err := q.Send(context.Background(), "q", []byte("x"), SendOptions{}); !errors.Is(err, boom) {
		t.Errorf("expected wrapped error, got %v", err)
	}
}

func TestSQS_ReceiveClampsAndMaps(t *testing.T) {
	fake := &fakeSQS{messages: []sqstypes.Message{{
		MessageId:     aws.String("m-1"),
		ReceiptHandle: aws.String("r-1"),
		Body:          aws.String("{}"),
		Attributes:    map[string]string{AttrReceiveCount: "3"},
		MessageAttributes: map[string]sqstypes.MessageAttributeValue{
			"commandType": {DataType: aws.String("String"), StringValue: aws.String("createUser")},
		},
	}}}
	q := NewSQS(fake)

	msgs, err := q.Receive(context.Background(), "q", 50, 60)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	in := fake.receives[0]
	if in.MaxNumberOfMessages != 10 {
		t.Errorf("expected max messages clamped to 10, got %d", in.MaxNumberOfMessages)
	}
	if in.WaitTimeSeconds != 20 {
		t.Errorf("expected wait clamped to 20, got %d", in.WaitTimeSeconds)
	}

	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	m := msgs[0]
	if m.ID != "m-1" || m.ReceiptHandle != "r-1" || m.Body != "{}" {
		t.Errorf("unexpected message %+v", m)
	}
	if m.Attributes[AttrReceiveCount] != "3" {
		t.Errorf("expected receive count 3, got %q", m.Attributes[AttrReceiveCount])
	}
	if m.MessageAttributes["commandType"] != "createUser" {
		t.Errorf("expected commandType createUser, got %v", m.MessageAttributes)
	}
}

func TestSQS_Ack(t *testing.T) {
	fake := &fakeSQS{}
	q := NewSQS(fake)

	if err := q.Ack(context.Background(), "q", "r-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if aws.ToString(fake.deletes[0].ReceiptHandle) != "r-1" {
		t.Error("expected delete with receipt r-1")
	}
}
