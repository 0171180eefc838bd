//go:build integration

package mongostore

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"budget/internal/store"
	"budget/internal/store/storetest"
)

func TestMongoStoreContract(t *testing.T) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}
	storetest.Run(t, func(t *testing.T) store.Store {
		ctx := context.Background()
		name := fmt.Sprintf("budget_test_%d", time.Now().UnixNano())
		s, err := Connect(ctx, uri, name)
		if err != nil {
			t.Fatalf("connect: %v", err)
		}
		t.Cleanup(func() {
			_ = s.Drop(context.Background())
			_ = s.Close()
		})
		return s
	})
}
