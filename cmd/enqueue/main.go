package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/driftworld/turncore/pkg/queue"
)

// enqueue pushes a turn or story beat onto the worker queue directly.
// Handy for exercising the worker without running the API.
func main() {
	redisURL := flag.String("redis", "localhost:6379", "Redis address")
	sessionID := flag.String("session", "", "Session UUID (required)")
	message := flag.String("message", "", "Turn message")
	beat := flag.String("beat", "", "Story beat prompt")
	flag.Parse()

	if *sessionID == "" {
		log.Fatal("-session is required")
	}
	if *message == "" && *beat == "" {
		log.Fatal("one of -message or -beat is required")
	}

	id, err := uuid.Parse(*sessionID)
	if err != nil {
		log.Fatal("Invalid session UUID:", err)
	}

	client := redis.NewClient(&redis.Options{Addr: *redisURL})
	defer client.Close()

	ctx := context.Background()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}

	fmt.Println("Connected to Redis successfully!")

	req := &queue.Request{
		RequestID:  uuid.New().String(),
		SessionID:  id,
		EnqueuedAt: time.Now(),
	}
	if *message != "" {
		req.Type = queue.RequestTypeTurn
		req.Message = *message
	} else {
		req.Type = queue.RequestTypeStoryBeat
		req.BeatPrompt = *beat
	}

	data, err := json.Marshal(req)
	if err != nil {
		log.Fatal("Failed to marshal request:", err)
	}

	if err := client.RPush(ctx, "turns", data).Err(); err != nil {
		log.Fatal("Failed to enqueue request:", err)
	}

	fmt.Printf("Enqueued %s request: %s\n", req.Type, req.RequestID)

	depth, err := client.LLen(ctx, "turns").Result()
	if err != nil {
		log.Fatal("Failed to get queue depth:", err)
	}

	fmt.Printf("Queue depth: %d requests\n", depth)
}
