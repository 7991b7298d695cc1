package agenda_test

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/aretw0/agenda"
	"github.com/aretw0/agenda/pkg/adapters/memory"
)

// ExampleAssistant_ProcessTurn books a slot on an in-memory calendar.
func ExampleAssistant_ProcessTurn() {
	monday := time.Date(2026, time.October, 19, 9, 0, 0, 0, time.UTC)

	assistant, err := agenda.New(memory.NewCalendar(),
		agenda.WithClock(func() time.Time { return monday }),
	)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	for _, msg := range []string{"hello", "Book Friday at 2pm", "yes"} {
		reply, _, err := assistant.ProcessTurn(ctx, "demo", msg)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(reply)
	}

	// Output:
	// 👋 Hi there! I can help you schedule meetings. Try something like 'Book a call tomorrow at 3pm'.
	// ✅ That time is free! Should I book it for Friday, Oct 23 at 02:00 PM? (yes/no)
	// ✅ Booked for Friday, Oct 23 at 02:00 PM
}
