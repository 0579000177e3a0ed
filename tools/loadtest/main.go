package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

func main() {
	wsURL := flag.String("ws", "ws://localhost:8080/ws", "WebSocket server URL")
	ingestURL := flag.String("ingest", "http://localhost:8080/ingest", "Ingest endpoint URL")
	viewers := flag.Int("viewers", 10, "Number of concurrent viewers")
	city := flag.String("city", "loadtest", "City channel to join")
	pics := flag.Int("pics", 100, "Pics to publish")
	flag.Parse()

	log.Printf("Load test: %d viewers on %s, %d pics", *viewers, *city, *pics)

	var (
		connected int64
		received  int64
		errors    int64
		latencies []time.Duration
		latencyMu sync.Mutex
	)

	start := time.Now()

	for i := 0; i < *viewers; i++ {
		go func(id int) {
			conn, _, err := websocket.DefaultDialer.Dial(*wsURL, nil)
			if err != nil {
				atomic.AddInt64(&errors, 1)
				log.Printf("viewer %d: dial error: %v", id, err)
				return
			}
			defer conn.Close()
			atomic.AddInt64(&connected, 1)

			joinMsg, _ := json.Marshal(map[string]string{"type": "join", "city": *city})
			conn.WriteMessage(websocket.TextMessage, joinMsg)

			conn.SetReadDeadline(time.Now().Add(30 * time.Second))
			for {
				_, data, err := conn.ReadMessage()
				if err != nil {
					return
				}
				atomic.AddInt64(&received, 1)

				var msg struct {
					Type string `json:"type"`
					Pic  string `json:"pic"`
				}
				if json.Unmarshal(data, &msg) != nil || msg.Type != "pic" {
					continue
				}
				// Pics carry the publish time as their ref.
				var sent int64
				if _, err := fmt.Sscanf(msg.Pic, "pic-%d", &sent); err == nil {
					lat := time.Since(time.Unix(0, sent))
					latencyMu.Lock()
					latencies = append(latencies, lat)
					latencyMu.Unlock()
				}
			}
		}(i)
	}

	// Give viewers time to connect and join.
	time.Sleep(500 * time.Millisecond)

	var published int64
	for j := 0; j < *pics; j++ {
		body, _ := json.Marshal(map[string]string{
			"city": *city,
			"pic":  fmt.Sprintf("pic-%d", time.Now().UnixNano()),
		})
		resp, err := http.Post(*ingestURL, "application/json", bytes.NewReader(body))
		if err != nil {
			atomic.AddInt64(&errors, 1)
			continue
		}
		resp.Body.Close()
		if resp.StatusCode == http.StatusAccepted {
			published++
		}
		time.Sleep(10 * time.Millisecond)
	}

	// Drain in-flight deliveries before reporting. Viewers exit on read
	// deadline; don't hold the report hostage waiting for them.
	time.Sleep(time.Second)
	elapsed := time.Since(start)

	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	fmt.Println("\n=== Load Test Results ===")
	fmt.Printf("Duration:    %s\n", elapsed.Round(time.Millisecond))
	fmt.Printf("Viewers:     %d connected\n", connected)
	fmt.Printf("Published:   %d pics\n", published)
	fmt.Printf("Received:    %d messages\n", atomic.LoadInt64(&received))
	fmt.Printf("Errors:      %d\n", errors)
	if len(latencies) > 0 {
		fmt.Printf("Latency p50: %s\n", percentile(latencies, 50))
		fmt.Printf("Latency p95: %s\n", percentile(latencies, 95))
		fmt.Printf("Latency p99: %s\n", percentile(latencies, 99))
	}
	fmt.Printf("Throughput:  %.0f pics/sec\n", float64(published)/elapsed.Seconds())
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
