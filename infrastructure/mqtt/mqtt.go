package mqtt

import (
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

func Connection(uri, user, password string) (mqtt.Client, error) {

	opts := mqtt.NewClientOptions().AddBroker(uri)
	opts.SetUsername(user)
	opts.SetPassword(password)
	opts.SetClientID(fmt.Sprintf("payments-%d", time.Now().UnixNano()))

	client := mqtt.NewClient(opts)

	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}

	return client, nil
}

type repositoryImpl struct {
	client mqtt.Client
	prefix string
	zap.Logger
}

func NewMQTTRepositoryImpl(client mqtt.Client, prefix string, logger *zap.Logger) *repositoryImpl {
	return &repositoryImpl{client, prefix, *logger}
}

// Publish pushes a realtime status update at QoS 1. Transaction topics are
// scoped under the configured prefix so apps only subscribe to their own traffic.
func (r repositoryImpl) Publish(topic, message string, retain bool) (err error) {
	publish := r.client.Publish(r.prefix+"/topic/"+topic+"/", byte(1), retain, message)
	if publish.Wait() && publish.Error() != nil {
		r.Logger.With(zap.Any("message", message)).
			With(zap.Any("topic", topic)).
			With(zap.Error(publish.Error())).
			Error("MQTT_PUBLISH")
		return publish.Error()
	}
	return err
}

func (r repositoryImpl) Subscribe(topic string, c func(client mqtt.Client, message mqtt.Message)) {
	r.client.Subscribe(r.prefix+"/topic/"+topic+"/#", 0, c)
}
