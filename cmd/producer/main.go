package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"math/rand"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"
)

type Trade struct {
	Symbol     string    `json:"symbol"`
	TradeType  string    `json:"trade_type"` // "buy" | "sell"
	Lots       float64   `json:"lots"`
	OpenPrice  *float64  `json:"open_price,omitempty"`
	ClosePrice *float64  `json:"close_price,omitempty"`
	Profit     float64   `json:"profit"`
	Timestamp  time.Time `json:"timestamp"`
	CloseTime  time.Time `json:"close_time"`
}

var (
	tradeTypes = []string{"buy", "sell"}

	pairs    = []string{"EURUSD", "GBPUSD", "USDJPY", "AUDUSD", "USDCHF", "USDCAD", "EURJPY"}
	pairBase = map[string]float64{
		"EURUSD": 1.085, "GBPUSD": 1.27, "USDJPY": 149.5, "AUDUSD": 0.655,
		"USDCHF": 0.885, "USDCAD": 1.36, "EURJPY": 162.3,
	}

	// Properly seeded RNG used everywhere in this file
	rng = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// --- env helpers ---

func envOr(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func mustBrokers(csv string) []string {
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		log.Fatal("KAFKA_BROKERS is empty")
	}
	return out
}

func parseRate() int {
	n := 1
	if v := strings.TrimSpace(os.Getenv("TRADES_PER_SEC")); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 && i <= 50 {
			n = i
		}
	}
	return n
}

func parseBoolEnv(k string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(k)))
	switch v {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func parseDurationEnv(k string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(k))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("WARN: invalid %s=%q, using default %s", k, raw, def)
		return def
	}
	return d
}

// --- small utils ---

func round(x float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(x*scale) / scale
}

func pick[T any](xs []T) T { return xs[rng.Intn(len(xs))] }

// --- trade generation ---

func genTrade() Trade {
	sym := pick(pairs)
	ttype := pick(tradeTypes)
	base := pairBase[sym]

	// JPY crosses quote in hundredths, the rest in ten-thousandths
	pip := 0.0001
	decimals := 5
	if strings.HasSuffix(sym, "JPY") {
		pip = 0.01
		decimals = 3
	}

	lots := round(0.01+rng.Float64()*0.99, 2)
	open := round(base*(1+(rng.Float64()-0.5)*0.004), decimals) // ±0.2%

	// Slight positive drift so demo stats show a plausible win rate
	pips := (rng.Float64() - 0.45) * 30
	move := pips * pip
	if ttype == "sell" {
		move = -move
	}
	closed := round(open+move, decimals)

	// $10 per pip per standard lot
	profit := round(pips*lots*10, 2)

	now := time.Now().UTC()
	opened := now.Add(-time.Duration(rng.Intn(3600)) * time.Second)
	return Trade{
		Symbol:     sym,
		TradeType:  ttype,
		Lots:       lots,
		OpenPrice:  &open,
		ClosePrice: &closed,
		Profit:     profit,
		Timestamp:  opened,
		CloseTime:  now,
	}
}

// Optionally attempt to create the topic (idempotent; errors ignored if exists).
func ensureTopic(ctx context.Context, broker, topic string) {
	conn, err := kafka.DialContext(ctx, "tcp", broker)
	if err != nil {
		log.Printf("ensureTopic: dial failed: %v", err)
		return
	}
	defer conn.Close()
	if err := conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}); err != nil {
		log.Printf("ensureTopic: create(%s): %v (ok if already exists)", topic, err)
	}
}

// --- senders ---

type sender interface {
	Send(ctx context.Context, t Trade) error
	Close() error
}

type kafkaSender struct{ w *kafka.Writer }

func (s *kafkaSender) Send(ctx context.Context, t Trade) error {
	b, err := json.Marshal(t)
	if err != nil {
		return err
	}
	msg := kafka.Message{Key: []byte(t.Symbol), Value: b, Time: t.CloseTime}
	return s.w.WriteMessages(ctx, msg)
}

func (s *kafkaSender) Close() error { return s.w.Close() }

type httpSender struct {
	url    string
	client *http.Client
}

func (s *httpSender) Send(ctx context.Context, t Trade) error {
	b, err := json.Marshal(t)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("upload returned %s", resp.Status)
	}
	return nil
}

func (s *httpSender) Close() error { return nil }

// --- main ---

func main() {
	mode := strings.ToLower(envOr("PRODUCER_MODE", "kafka")) // "kafka" | "http"
	rate := parseRate()

	stayAlive := parseBoolEnv("PRODUCER_STAY_ALIVE", false)
	ttl := parseDurationEnv("PRODUCER_TTL", 1*time.Minute) // default: 1min

	// Base context cancelled by SIGINT/SIGTERM
	baseCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// TTL wrapper: only active when not stayAlive and ttl>0
	ctx := baseCtx
	if !stayAlive && ttl > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(baseCtx, ttl)
		defer cancel()
	}

	var out sender
	switch mode {
	case "http":
		url := envOr("UPLOAD_URL", "http://localhost:10000/api/upload-trades")
		out = &httpSender{url: url, client: &http.Client{Timeout: 10 * time.Second}}
		log.Printf("producer: mode=http url=%s rate=%d/s stayAlive=%v ttl=%s", url, rate, stayAlive, ttl)

	case "kafka":
		brokers := mustBrokers(envOr("KAFKA_BROKERS", "kafka:9092"))
		topic := envOr("KAFKA_TOPIC", "trades")
		if parseBoolEnv("PRODUCER_ENSURE_TOPIC", true) {
			c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			ensureTopic(c, brokers[0], topic)
			cancel()
		}
		dialer := &net.Dialer{Timeout: 10 * time.Second, DualStack: true}
		out = &kafkaSender{w: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
			RequiredAcks:           kafka.RequireOne,
			BatchTimeout:           200 * time.Millisecond,
			Transport:              &kafka.Transport{Dial: dialer.DialContext},
		}}
		log.Printf("producer: mode=kafka brokers=%v topic=%s rate=%d/s stayAlive=%v ttl=%s", brokers, topic, rate, stayAlive, ttl)

	default:
		log.Fatalf("unknown PRODUCER_MODE %q (use 'kafka' or 'http')", mode)
	}
	defer func() { _ = out.Close() }()

	// 1/rate seconds per trade
	if rate <= 0 {
		rate = 1
	}
	period := time.Second / time.Duration(rate)
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if ctx.Err() == context.DeadlineExceeded {
				log.Println("producer: TTL reached; exiting")
			} else {
				log.Println("producer: shutting down (signal)")
			}
			return

		case <-ticker.C:
			// Tiny jitter to avoid sync with other producers
			time.Sleep(time.Duration(rng.Intn(150)) * time.Millisecond)

			t := genTrade()
			if err := out.Send(ctx, t); err != nil {
				if ctx.Err() != nil {
					continue
				}
				log.Printf("send error: %v", err)
			}
		}
	}
}
