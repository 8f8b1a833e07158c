package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/Zubax/force-measurement-rig/pkg/telemetry"
	"github.com/Zubax/force-measurement-rig/pkg/telemetry/mqtt"
)

var mqttURL = "mqtt://localhost:1883/fmr/"

func init() {
	if val := os.Getenv("FMR_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}

	q.Sub("#", mqtt.Handler(func(topic string, payload []byte) {
		if topic != telemetry.ReadingTopic {
			log.Printf("%s: %s", topic, string(payload))
			return
		}
		var s telemetry.Sample
		if err := json.Unmarshal(payload, &s); err != nil {
			log.Printf("%s: bad sample: %v", topic, err)
			return
		}
		log.Printf("%s #%d forces=%.3f total=%.3f lost=%d", s.Rig, s.Seq, s.Forces, s.Total, s.Lost)
	}))
	token := q.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		log.Fatalln(err)
	}
	<-(chan struct{})(nil)
}
