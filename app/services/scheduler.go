package services

import (
	"log"
	"time"
)

// StartScheduler starts the background task scheduler
func StartScheduler(scanner *OverdueScanner, sweepHour int) {
	go func() {
		log.Println("Scheduler started...")
		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()

		for range ticker.C {
			now := time.Now()

			// Trigger the overdue sweep once a day at the configured hour
			if now.Hour() == sweepHour && now.Minute() == 0 {
				log.Printf("Triggering scheduled tasks [%02d:00]...", sweepHour)

				if _, err := scanner.Sweep(now); err != nil {
					log.Printf("Error running overdue sweep: %v", err)
				}
			}
		}
	}()
}
