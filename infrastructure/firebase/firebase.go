package firebase

import (
	"strings"

	"go.uber.org/zap"
	"gopkg.in/maddevsio/fcm.v1"
)

type IFirebase interface {
	Send(topic, title, body string, data map[string]interface{}) error
	SendByToken(tokens []string, title, body string, data map[string]interface{}) error
}

type repoImpl struct {
	FirebaseKey string
	logger      *zap.Logger
}

func NewRepoImpl(firebaseKey string, logger *zap.Logger) *repoImpl {
	return &repoImpl{FirebaseKey: firebaseKey, logger: logger}
}

// topicPath prefixes bare topic names; an absolute path passes through.
func topicPath(topic string) string {
	if strings.HasPrefix(topic, "/") {
		return topic
	}
	return "/topics/" + topic
}

func (r *repoImpl) Send(topic, title, body string, data map[string]interface{}) error {

	c := fcm.NewFCM(r.FirebaseKey)

	topic = topicPath(topic)

	response, err := c.Send(fcm.Message{
		Data:             data,
		To:               topic,
		ContentAvailable: true,
		Priority:         fcm.PriorityHigh,
		Notification: fcm.Notification{
			Title: title,
			Body:  body,
		},
	})

	if err != nil {
		return err
	}

	r.logger.With(zap.String("topic", topic)).
		With(zap.String("title", title)).
		With(zap.Int("status_code", response.StatusCode)).
		With(zap.Int("success", response.Success)).
		With(zap.Int("fail", response.Fail)).
		Info("FCM_SEND")

	return nil
}

func (r *repoImpl) SendByToken(tokens []string, title, body string, data map[string]interface{}) error {

	c := fcm.NewFCM(r.FirebaseKey)

	response, err := c.Send(fcm.Message{
		Data:             data,
		RegistrationIDs:  tokens,
		ContentAvailable: true,
		Priority:         fcm.PriorityHigh,
		Notification: fcm.Notification{
			Title: title,
			Body:  body,
		},
	})

	if err != nil {
		r.logger.With(zap.String("title", title)).With(zap.Error(err)).Error("FCM_SEND_TOKEN")
		return err
	}

	r.logger.With(zap.String("title", title)).
		With(zap.Int("status_code", response.StatusCode)).
		With(zap.Int("success", response.Success)).
		With(zap.Int("fail", response.Fail)).
		Info("FCM_SEND_TOKEN")

	return nil
}
