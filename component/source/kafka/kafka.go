package kafka

import (
	"github.com/Shopify/sarama"
	"github.com/sirupsen/logrus"
	"strings"
	"styx"
	"styx/chunk"
	"styx/properties"
	"time"
	"unsafe"
)

var (
	TopicsProperty                = properties.NewRequiredProperty[[]string]("topics", "")
	VersionProperty               = properties.NewProperty[string]("version", "", "2.4.0")
	BrokersProperty               = properties.NewRequiredProperty[[]string]("brokers", "")
	GroupIdProperty               = properties.NewProperty[string]("group.id", "", "styx")
	OffsetsCommitIntervalProperty = properties.NewProperty[int]("offsets.commit.interval", "kafka commit interval sec", 5)
	OffsetsInitial                = properties.NewProperty[string]("offsets.initial", "newest or oldest", "oldest")
	SchemaProperty                = properties.NewRequiredProperty[[]string]("schema", "column defs as name:kind, record fields map by position")
	SeparatorProperty             = properties.NewProperty[string]("separator", "record field separator", ",")
	BatchProperty                 = properties.NewProperty[int]("batch", "rows per emitted chunk", 256)
)

type source struct {
	ctx styx.Context

	logger logrus.FieldLogger

	header    *chunk.Header
	separator string
	batch     int

	consumerGroup sarama.ConsumerGroup
}

func (s *source) Open(ctx styx.Context) error {
	s.ctx = ctx
	s.logger = ctx.Logger()
	//TODO all kafka consumer properties
	//OffsetNewest or OffsetOldest.
	config := sarama.NewConfig()
	version, err := sarama.ParseKafkaVersion(s.ctx.Properties().GetString(VersionProperty.Name()))
	if err != nil {
		return err
	}
	config.Consumer.Return.Errors = true

	config.Version = version
	config.Consumer.Offsets.AutoCommit.Interval = time.Duration(s.ctx.Properties().GetInt(OffsetsCommitIntervalProperty.Name())) * time.Second
	if s.ctx.Properties().GetString(OffsetsInitial.Name()) == "newest" {
		config.Consumer.Offsets.Initial = sarama.OffsetNewest
	}

	s.header, err = chunk.ParseSchema(s.ctx.Properties().GetStringSlice(SchemaProperty.Name()))
	if err != nil {
		return err
	}
	s.separator = s.ctx.Properties().GetString(SeparatorProperty.Name())
	s.batch = s.ctx.Properties().GetInt(BatchProperty.Name())

	s.consumerGroup, err = sarama.NewConsumerGroup(s.ctx.Properties().GetStringSlice(BrokersProperty.Name()), s.ctx.Properties().GetString(GroupIdProperty.Name()), config)
	if err != nil {
		return err
	}
	return nil
}

func (s *source) Close() error {
	return nil
}

func (s *source) PropertyDef() styx.PropertyDef {
	return styx.PropertyDef{TopicsProperty, VersionProperty, BrokersProperty, GroupIdProperty, OffsetsCommitIntervalProperty, OffsetsInitial, SchemaProperty, SeparatorProperty, BatchProperty}
}

func (s *source) Collect(emitNext styx.EmitNext) error {
	for {
		var err error
		select {
		case <-s.ctx.Done():
			s.logger.Info("ctx is done, close kafka consumer.")
			for i := 1; i < 4; i++ {
				err = s.consumerGroup.Close()
				if err != nil {
					s.logger.WithError(err).WithField("time", i).Warn("close kafka consumer error, waiting 1 second.")
					time.Sleep(1 * time.Second)
				} else {
					return nil
				}
			}
			s.logger.Error("close kafka consumer error, stop retry.")
			return err
		default:
			err = s.consumerGroup.Consume(s.ctx.Ctx(), s.ctx.Properties().GetStringSlice(TopicsProperty.Name()), &consumer{
				header:    s.header,
				separator: s.separator,
				batch:     s.batch,
				logger:    s.logger,
				emitNext:  emitNext,
			})
			if err != nil {
				s.logger.WithError(err).Warn("collect kafka error, stopping collect.")
				return err
			}
		}
	}

}

type consumer struct {
	header    *chunk.Header
	separator string
	batch     int
	logger    logrus.FieldLogger
	emitNext  styx.EmitNext
}

func (c *consumer) Setup(session sarama.ConsumerGroupSession) error {
	//TODO recovery offset
	return nil
}

func (c *consumer) Cleanup(session sarama.ConsumerGroupSession) error {
	return nil
}

func (c *consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	builder := chunk.NewBuilder(c.header)
	for message := range claim.Messages() {
		record := *(*string)(unsafe.Pointer(&message.Value))
		if err := builder.AppendRow(strings.Split(record, c.separator)); err != nil {
			c.logger.WithError(err).Warnf("can't decode record at %s/%d/%d, skip.", message.Topic, message.Partition, message.Offset)
			session.MarkMessage(message, "")
			continue
		}
		if builder.Len() >= c.batch {
			c.emitNext(builder.Cut())
		}
		session.MarkMessage(message, "")
	}
	if ck := builder.Cut(); ck != nil {
		c.emitNext(ck)
	}
	return nil
}

func New() styx.Source {
	return &source{}
}
