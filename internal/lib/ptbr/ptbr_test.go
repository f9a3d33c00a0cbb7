package ptbr

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatDate(t *testing.T) {
	tests := []struct {
		name string
		date time.Time
		want string
	}{
		{
			name: "утро, месяц с однозначным номером",
			date: time.Date(2024, time.January, 8, 9, 30, 0, 0, time.UTC),
			want: "dia 08 de jan, às 9:30h",
		},
		{
			name: "вечер, двузначный день",
			date: time.Date(2024, time.December, 25, 18, 0, 0, 0, time.UTC),
			want: "dia 25 de dez, às 18:00h",
		},
		{
			name: "полночь",
			date: time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
			want: "dia 01 de jun, às 0:00h",
		},
		{
			name: "минуты с ведущим нулём",
			date: time.Date(2025, time.March, 3, 14, 5, 0, 0, time.UTC),
			want: "dia 03 de mar, às 14:05h",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDate(tt.date))
		})
	}
}
