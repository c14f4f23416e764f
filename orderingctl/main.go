package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"strconv"

	"github.com/docopt/docopt-go"

	"github.com/collabstream/ordering/ordering"
)

const OrderingCtlVersion = "0.0.1"

var Out *log.Logger
var Err *log.Logger

func init() {
	Out = log.New(os.Stdout, "", 0)
	Err = log.New(os.Stderr, "", log.Ldate|log.Ltime|log.Lshortfile)
}

func main() {
	usage := `Ordering ingress control.

Usage:
    orderingctl check-config --config=<config>
    orderingctl send --config=<config>
        --tenant=<tenant_id>
        --document=<document_id>
        [--type=<type>]
        [--csn=<csn>]
        [--rsn=<rsn>]
        [<contents>]

Options:
    -h --help                  Show this screen.
    --version                  Show version.
    --config=<config>          Path to the config file.
    --tenant=<tenant_id>       Tenant id.
    --document=<document_id>   Document id.
    --type=<type>              Operation type [default: op].
    --csn=<csn>                Client sequence number [default: 1].
    --rsn=<rsn>                Reference sequence number [default: 0].`

	opts, err := docopt.ParseArgs(usage, os.Args[1:], OrderingCtlVersion)
	if err != nil {
		panic(err)
	}

	if checkConfig_, _ := opts.Bool("check-config"); checkConfig_ {
		checkConfig(opts)
	} else if send_, _ := opts.Bool("send"); send_ {
		send(opts)
	}
}

func checkConfig(opts docopt.Opts) {
	configPath, _ := opts.String("--config")

	config, err := ordering.LoadConfig(configPath)
	if err != nil {
		Err.Fatalf("Invalid config (%s).", err)
	}
	Out.Printf("ok service=%s kafka=%v topic=%s exchange=%s",
		config.Service.Name,
		config.Kafka.Brokers,
		config.Kafka.Topic,
		config.Amqp.Exchange,
	)
}

// join a document, order one operation and disconnect. a smoke test against
// live kafka and amqp collaborators. uses in-memory document storage, so the
// existing flag reflects this invocation only.
func send(opts docopt.Opts) {
	configPath, _ := opts.String("--config")
	tenantId, _ := opts.String("--tenant")
	documentId, _ := opts.String("--document")
	opType, _ := opts.String("--type")
	csnStr, _ := opts.String("--csn")
	rsnStr, _ := opts.String("--rsn")
	contents, _ := opts.String("<contents>")

	csn, err := strconv.ParseInt(csnStr, 10, 64)
	if err != nil {
		Err.Fatalf("Invalid csn (%s).", err)
	}
	rsn, err := strconv.ParseInt(rsnStr, 10, 64)
	if err != nil {
		Err.Fatalf("Invalid rsn (%s).", err)
	}

	config, err := ordering.LoadConfig(configPath)
	if err != nil {
		Err.Fatalf("Invalid config (%s).", err)
	}

	cancelCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	producer, err := ordering.NewKafkaProducer(config.KafkaSettings())
	if err != nil {
		Err.Fatalf("Kafka connect error (%s).", err)
	}
	defer producer.Close()

	publisher, err := ordering.NewAmqpContentPublisher(config.AmqpSettings())
	if err != nil {
		Err.Fatalf("Amqp connect error (%s).", err)
	}
	defer publisher.Close()

	factory := ordering.NewOrdererFactory(
		cancelCtx,
		producer,
		ordering.NewMemoryDocumentStorage(),
		config.Orderer.MaxMessageSize,
		publisher,
		config.FactorySettings(),
	)

	orderer, err := factory.Create(cancelCtx, tenantId, documentId)
	if err != nil {
		Err.Fatalf("Orderer create error (%s).", err)
	}

	user := json.RawMessage(`{"id":"orderingctl"}`)
	client := json.RawMessage(`{"mode":"write"}`)
	connection, err := orderer.Connect(cancelCtx, discardSocket{}, user, client)
	if err != nil {
		Err.Fatalf("Connect error (%s).", err)
	}

	contentsJson, err := json.Marshal(contents)
	if err != nil {
		Err.Fatalf("Invalid contents (%s).", err)
	}
	err = connection.Order(&ordering.DocumentMessage{
		Type:                    opType,
		ClientSequenceNumber:    csn,
		ReferenceSequenceNumber: rsn,
		Contents:                contentsJson,
		Traces:                  []ordering.TraceRecord{},
	})
	if err != nil {
		Err.Fatalf("Order error (%s).", err)
	}

	if err := connection.Disconnect(); err != nil {
		Err.Fatalf("Disconnect error (%s).", err)
	}

	Out.Printf("sent client_id=%s document=%s/%s", connection.ClientId(), tenantId, documentId)
}

// there is no live fan-out session for a one-shot send
type discardSocket struct{}

func (discardSocket) Join(ctx context.Context, room string) error {
	return nil
}
