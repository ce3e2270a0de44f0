package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/storefront/internal/adapter/storage"
	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/service"
)

const (
	customerID = "stress-customer"
	queueSize  = 100
)

var productIDs = []string{"stress-item-a", "stress-item-b"}

func main() {
	initialStock := flag.Int("stock", 20, "initial stock per product")
	totalRequests := flag.Int("requests", 50, "concurrent orders to place")
	flag.Parse()

	ctx := context.Background()
	store := storage.NewMemoryAdapter()

	if err := store.CreateCustomer(ctx, domain.Customer{ID: customerID, Name: "Stress", Email: "stress@example.com"}); err != nil {
		log.Fatalf("failed to create customer: %v", err)
	}
	for _, id := range productIDs {
		if err := store.CreateProduct(ctx, domain.Product{
			ID:       id,
			Name:     id,
			Price:    decimal.NewFromInt(10),
			Quantity: *initialStock,
		}); err != nil {
			log.Fatalf("failed to create product %s: %v", id, err)
		}
	}

	orderService := service.NewOrderService(store, store, store, store, storage.NewMemoryCache(), queueSize)

	// Drain the event queue in background
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for range orderService.GetEventQueue() {
		}
	}()

	var successCount atomic.Int32
	var stockFailCount atomic.Int32
	var otherFailCount atomic.Int32

	// Every order takes one unit of each product.
	lines := []domain.LineRequest{
		{ProductID: productIDs[0], Quantity: 1},
		{ProductID: productIDs[1], Quantity: 1},
	}

	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < *totalRequests; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()

			_, err := orderService.PlaceOrder(ctx, fmt.Sprintf("request-%d", n), customerID, lines)
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.Is(err, service.ErrInsufficientStock):
				stockFailCount.Add(1)
			default:
				otherFailCount.Add(1)
				log.Printf("request %d: %v", n, err)
			}
		}(i)
	}

	wg.Wait()
	elapsed := time.Since(start)

	orderService.Close()
	<-drained

	success := int(successCount.Load())
	stockFail := int(stockFailCount.Load())
	otherFail := int(otherFailCount.Load())

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Initial Stock:    %d per product\n", *initialStock)
	fmt.Printf("Total Requests:   %d\n", *totalRequests)
	fmt.Printf("Successful:       %d\n", success)
	fmt.Printf("Out of stock:     %d\n", stockFail)
	fmt.Printf("Other failures:   %d\n", otherFail)
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	expected := min(*initialStock, *totalRequests)
	if success == expected && stockFail == *totalRequests-expected {
		fmt.Printf("PASS: %d orders succeeded, %d rejected for stock\n", success, stockFail)
	} else {
		fmt.Printf("FAIL: expected %d success/%d rejected, got %d/%d\n",
			expected, *totalRequests-expected, success, stockFail)
	}

	products, err := store.FindManyByID(ctx, productIDs)
	if err != nil {
		log.Fatalf("failed to read stock: %v", err)
	}
	for _, p := range products {
		want := *initialStock - success
		if p.Quantity == want {
			fmt.Printf("PASS: %s stock %d\n", p.ID, p.Quantity)
		} else {
			fmt.Printf("FAIL: %s expected stock %d, got %d\n", p.ID, want, p.Quantity)
		}
	}

	if placed := len(store.Orders()); placed == success {
		fmt.Printf("PASS: ledger holds %d orders\n", placed)
	} else {
		fmt.Printf("FAIL: ledger holds %d orders, expected %d\n", placed, success)
	}
}
