// Package ptbr форматирует даты по бразильским правилам для уведомлений
// и писем: "dia 08 de jan, às 9:30h".
package ptbr

import (
	"fmt"
	"time"
)

// Сокращённые названия месяцев в pt-BR, индекс — time.Month-1.
var months = [12]string{
	"jan", "fev", "mar", "abr", "mai", "jun",
	"jul", "ago", "set", "out", "nov", "dez",
}

// FormatDate возвращает дату в виде "dia DD de Mon, às H:MMh": день с ведущим
// нулём, месяц строчными буквами, часы без ведущего нуля, минуты с ним.
func FormatDate(t time.Time) string {
	return fmt.Sprintf("dia %02d de %s, às %d:%02dh",
		t.Day(), months[t.Month()-1], t.Hour(), t.Minute())
}
