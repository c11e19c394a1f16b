//go:build integration

package main_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkamodule "github.com/testcontainers/testcontainers-go/modules/kafka"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"github.com/toolshed-rental/service-booking/internal/application"
	bookingDomain "github.com/toolshed-rental/service-booking/internal/domain/booking"
	toolDomain "github.com/toolshed-rental/service-booking/internal/domain/tool"
	userDomain "github.com/toolshed-rental/service-booking/internal/domain/user"
	bookingEvents "github.com/toolshed-rental/service-booking/internal/events"
	"github.com/toolshed-rental/service-booking/internal/pkg/database"
	"github.com/toolshed-rental/service-booking/internal/pkg/kafka"
	"github.com/toolshed-rental/service-booking/internal/repository"
)

const (
	postgresImage = "postgres:16-alpine"
	kafkaImage    = "confluentinc/confluent-local:7.5.0"
)

// infra is a migrated postgres database plus a kafka broker.
type infra struct {
	DB      *gorm.DB
	Brokers []string
}

// stack is a booking service publishing to kafka and the payment consumer feeding it.
type stack struct {
	Service   *application.BookingService
	Consumer  *bookingEvents.PaymentEventConsumer
	Publisher *kafka.Producer
}

// startPostgres runs a postgres container, connects to it and applies the SQL migrations.
func startPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, postgresImage,
		tcpostgres.WithDatabase("toolshed_booking"),
		tcpostgres.WithUsername("toolshed"),
		tcpostgres.WithPassword("toolshed"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(t, err, "start postgres")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate postgres: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	cfg := database.PostgresConfig{
		Host:     host,
		Port:     port.Port(),
		User:     "toolshed",
		Password: "toolshed",
		DBName:   "toolshed_booking",
		SSLMode:  "disable",
	}

	var db *gorm.DB
	require.Eventually(t, func() bool {
		db, err = database.Connect(cfg, zap.NewNop())
		return err == nil
	}, 30*time.Second, 500*time.Millisecond, "postgres never accepted connections")

	require.NoError(t, database.RunMigrations(cfg.DatabaseURL(), "migrations", zap.NewNop()))
	return db
}

// startInfra starts postgres and kafka and creates the service topics.
func startInfra(t *testing.T) *infra {
	t.Helper()
	ctx := context.Background()

	db := startPostgres(t)

	broker, err := kafkamodule.Run(ctx, kafkaImage, kafkamodule.WithClusterID("toolshed-it"))
	require.NoError(t, err, "start kafka")
	t.Cleanup(func() {
		if err := broker.Terminate(context.Background()); err != nil {
			t.Logf("terminate kafka: %v", err)
		}
	})

	brokers, err := broker.Brokers(ctx)
	require.NoError(t, err)

	ensureTopics(t, brokers, bookingDomain.TopicBookingEvents, bookingEvents.TopicPaymentEvents)
	return &infra{DB: db, Brokers: brokers}
}

// newBookingService wires a BookingService with its own availability guard,
// as a separate replica would be.
func newBookingService(db *gorm.DB, publisher application.EventPublisher, logger *zap.Logger) *application.BookingService {
	bookings := repository.NewGormBookingRepository(db)
	return application.NewBookingService(
		bookings,
		repository.NewGormToolRepository(db),
		repository.NewGormUserRepository(db),
		application.NewAvailabilityGuard(bookings),
		bookingDomain.NewStandardPricingStrategy(nil),
		publisher,
		logger,
	)
}

// newStack wires the service to a real producer and a payment consumer on a fresh group.
func newStack(t *testing.T, in *infra) *stack {
	t.Helper()
	logger := zaptest.NewLogger(t)

	producer := kafka.NewProducer(in.Brokers, logger)
	t.Cleanup(func() { _ = producer.Close() })

	svc := newBookingService(in.DB, producer, logger)
	consumer := bookingEvents.NewPaymentEventConsumer(in.Brokers, "it-"+uuid.NewString(), svc, logger)
	t.Cleanup(func() { _ = consumer.Close() })

	return &stack{Service: svc, Consumer: consumer, Publisher: producer}
}

// seedTool stores an owner and one of their tools.
func seedTool(t *testing.T, db *gorm.DB, pricePerDay, deposit int64) *toolDomain.Tool {
	t.Helper()
	ctx := context.Background()

	owner := &userDomain.User{ID: uuid.New(), Name: "Owner", Email: uuid.NewString() + "@example.com", Role: "user"}
	require.NoError(t, repository.NewGormUserRepository(db).Save(ctx, owner))

	tool, err := toolDomain.NewTool(owner.ID, "Hammer Drill", "SDS plus", "power-tools", pricePerDay, deposit, nil)
	require.NoError(t, err)
	require.NoError(t, repository.NewGormToolRepository(db).Save(ctx, tool))
	return tool
}

// publishPayment emits a payment event the way the payment service would.
func publishPayment(t *testing.T, producer *kafka.Producer, eventType string, evt bookingEvents.PaymentEvent) {
	t.Helper()
	ce, err := kafka.NewCloudEvent("service-payment", eventType, evt)
	require.NoError(t, err)
	require.NoError(t, producer.PublishEvent(context.Background(), bookingEvents.TopicPaymentEvents,
		ce.WithSubject(evt.BookingID.String())))
}

// paymentStatusOf reads the stored payment status and version of a booking.
func paymentStatusOf(db *gorm.DB, id uuid.UUID) (string, int64, error) {
	var m repository.BookingModel
	if err := db.Select("payment_status", "version").Where("id = ?", id).Take(&m).Error; err != nil {
		return "", 0, err
	}
	return m.PaymentStatus, m.Version, nil
}

// waitForEvent scans a single-partition topic from the start for an event of
// the given type about the given subject.
func waitForEvent(t *testing.T, brokers []string, topic, eventType, subject string) kafka.CloudEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:   brokers,
		Topic:     topic,
		Partition: 0,
		MaxWait:   250 * time.Millisecond,
	})
	defer func() { _ = reader.Close() }()
	require.NoError(t, reader.SetOffset(kafkago.FirstOffset))

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			t.Fatalf("no %s event for %s on %s: %v", eventType, subject, topic, err)
		}
		ce, err := kafka.ParseCloudEvent(msg.Value)
		if err != nil {
			continue
		}
		if ce.Type == eventType && ce.Subject == subject {
			return ce
		}
	}
}

// ensureTopics creates single-partition topics through the broker admin API.
func ensureTopics(t *testing.T, brokers []string, topics ...string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	configs := make([]kafkago.TopicConfig, 0, len(topics))
	for _, topic := range topics {
		configs = append(configs, kafkago.TopicConfig{Topic: topic, NumPartitions: 1, ReplicationFactor: 1})
	}

	client := &kafkago.Client{Addr: kafkago.TCP(brokers...)}
	resp, err := client.CreateTopics(ctx, &kafkago.CreateTopicsRequest{Topics: configs})
	require.NoError(t, err, "create topics")
	for topic, topicErr := range resp.Errors {
		require.NoError(t, topicErr, "create topic %s", topic)
	}

	// Metadata reaches the other listeners asynchronously.
	require.Eventually(t, func() bool {
		meta, err := client.Metadata(ctx, &kafkago.MetadataRequest{Topics: topics})
		if err != nil {
			return false
		}
		for _, topic := range meta.Topics {
			if topic.Error != nil || len(topic.Partitions) == 0 {
				return false
			}
		}
		return len(meta.Topics) == len(topics)
	}, 15*time.Second, 250*time.Millisecond, "topics never became visible")
}
