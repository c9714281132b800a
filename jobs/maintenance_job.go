package jobs

import (
	"context"
	"log"
	"time"

	"github.com/anjiri1684/mentora/services"
)

// ExpireStaleTransactions fails checkouts that were never captured.
func ExpireStaleTransactions(txns *services.TransactionService, maxAge time.Duration) func() {
	return func() {
		expired, err := txns.ExpireStale(maxAge)
		if err != nil {
			log.Printf("🔥 Error expiring stale transactions: %v", err)
			return
		}
		if expired > 0 {
			log.Printf("Expired %d stale pending transaction(s)", expired)
		}
	}
}

// RetryCertificatePDFs renders certificates whose PDF upload failed earlier.
func RetryCertificatePDFs(certs *services.CertificateService, batch int) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		done, err := certs.RenderMissing(ctx, batch)
		if err != nil {
			log.Printf("🔥 Error retrying certificate PDFs: %v", err)
			return
		}
		if done > 0 {
			log.Printf("Rendered %d pending certificate PDF(s)", done)
		}
	}
}
