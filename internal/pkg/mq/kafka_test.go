package mq

import (
	"testing"

	"github.com/segmentio/kafka-go"
)

func TestKafkaHeaderCarrier(t *testing.T) {
	carrier := KafkaHeaderCarrier{}

	if got := carrier.Get("traceparent"); got != "" {
		t.Fatalf("empty carrier returned %q", got)
	}

	carrier.Set("traceparent", "00-aaaa-bbbb-01")
	carrier.Set("baggage", "tenant=acme")
	if got := carrier.Get("traceparent"); got != "00-aaaa-bbbb-01" {
		t.Fatalf("unexpected value %q", got)
	}

	// overwrite, not append
	carrier.Set("traceparent", "00-cccc-dddd-01")
	if got := carrier.Get("traceparent"); got != "00-cccc-dddd-01" {
		t.Fatalf("expected overwritten value, got %q", got)
	}
	if len(carrier) != 2 {
		t.Fatalf("expected 2 headers, got %d", len(carrier))
	}

	keys := carrier.Keys()
	if len(keys) != 2 || keys[0] != "traceparent" || keys[1] != "baggage" {
		t.Fatalf("unexpected keys %v", keys)
	}
}

func TestKafkaHeaderCarrierWrapsExistingHeaders(t *testing.T) {
	headers := []kafka.Header{{Key: "traceparent", Value: []byte("00-1111-2222-01")}}
	carrier := KafkaHeaderCarrier(headers)

	if got := carrier.Get("traceparent"); got != "00-1111-2222-01" {
		t.Fatalf("unexpected value %q", got)
	}
}
