// End-to-end smoke test against a running middlefinger with a wallet, a chain
// and a redis notification stream configured.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/stake-plus/middlefinger/src/data"
)

var (
	baseURL  = getenv("API_URL", "http://localhost:3000/v1")
	redisURL = getenv("REDIS_URL", "redis://127.0.0.1:6379/0")
)

type page struct {
	Account        string `json:"account"`
	Draft          string `json:"draft"`
	Cooling        bool   `json:"cooling"`
	SubmitDisabled bool   `json:"submitDisabled"`
	Entries        []struct {
		Address string `json:"address"`
		Message string `json:"message"`
	} `json:"entries"`
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func main() {
	ctx := context.Background()
	rdb := mustRedis()
	defer rdb.Close()

	checkETag()

	var p page
	doJSON("POST", "/connect", nil, &p, http.StatusOK)
	if p.Account == "" {
		log.Fatal("connect: wallet returned no account")
	}

	msg := "smoke-test " + uuid.NewString()
	doJSON("PUT", "/draft", map[string]any{"message": msg}, &p, http.StatusOK)
	if p.Cooling {
		log.Fatal("submit: still cooling down, wait before rerunning")
	}
	if p.SubmitDisabled {
		log.Fatal("draft: submit still disabled")
	}

	start := fmt.Sprintf("%d-0", time.Now().UnixMilli())
	doJSON("POST", "/submit", nil, nil, http.StatusAccepted)

	waitForStream(ctx, rdb, start, msg)
	waitForFeed(msg)

	fmt.Println("✓ all endpoints passed")
}

// ----------------------------- state

func checkETag() {
	res := do("GET", "/state", nil, "", http.StatusOK)
	res.Body.Close()
	etag := res.Header.Get("ETag")
	if etag == "" {
		log.Fatal("state: missing ETag")
	}
	res = do("GET", "/state", nil, etag, http.StatusNotModified)
	res.Body.Close()
}

func waitForFeed(msg string) {
	deadline := time.Now().Add(time.Minute)
	for time.Now().Before(deadline) {
		var p page
		doJSON("GET", "/state", nil, &p, http.StatusOK)
		if len(p.Entries) > 0 && p.Entries[0].Message == msg {
			if p.Draft != "" {
				log.Fatal("feed: draft not cleared after live event")
			}
			return
		}
		time.Sleep(2 * time.Second)
	}
	log.Fatal("feed: submission never reached the top of the feed")
}

// ----------------------------- notifications

func waitForStream(ctx context.Context, rdb *redis.Client, start, msg string) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	for {
		streams, err := rdb.XRead(ctx, &redis.XReadArgs{
			Streams: []string{data.StreamSubmissions, start},
			Block:   10 * time.Second,
		}).Result()
		if err != nil && err != redis.Nil {
			log.Fatalf("redis xread: %v", err)
		}
		for _, s := range streams {
			for _, m := range s.Messages {
				if m.Values["message"] == msg {
					return
				}
				start = m.ID
			}
		}
	}
}

// ----------------------------- helpers

func mustRedis() *redis.Client {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Fatalf("redis url: %v", err)
	}
	return redis.NewClient(opt)
}

func doJSON(method, path string, body, out any, want int) {
	res := do(method, path, body, "", want)
	defer res.Body.Close()
	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			log.Fatalf("%s %s decode: %v", method, path, err)
		}
	}
}

func do(method, path string, body any, etag string, want int) *http.Response {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			log.Fatalf("%s %s encode: %v", method, path, err)
		}
	}
	req, _ := http.NewRequest(method, baseURL+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("%s %s: %v", method, path, err)
	}
	if res.StatusCode != want {
		res.Body.Close()
		log.Fatalf("%s %s: want %d got %d", method, path, want, res.StatusCode)
	}
	return res
}
