// Package eventstreamutils builds the configured event publisher.
package eventstreamutils

import (
	"fmt"
	"strings"

	"github.com/papercomputeco/siamese/pkg/eventstream"
	"github.com/papercomputeco/siamese/pkg/eventstream/kafka"
	"github.com/papercomputeco/siamese/pkg/eventstream/nop"
)

type NewPublisherOpts struct {
	ProviderType string
	Brokers      string
	Topic        string
}

func NewPublisher(o *NewPublisherOpts) (eventstream.Publisher, error) {
	switch o.ProviderType {
	case "", "none":
		return nop.NewPublisher(), nil
	case "kafka":
		var brokers []string
		for _, b := range strings.Split(o.Brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
		return kafka.NewPublisher(kafka.Config{Brokers: brokers, Topic: o.Topic})
	default:
		return nil, fmt.Errorf("unsupported event stream provider: %s", o.ProviderType)
	}
}
