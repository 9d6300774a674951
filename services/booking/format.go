package booking

import (
	"fmt"
	"strings"

	"tourbot/models"
	"tourbot/services/notification"
)

const (
	BeginLabel   = "Забронировать экскурсию"
	CancelLabel  = "❌ Отмена"
	AbortLabel   = "❌ Отменить"
	ConfirmLabel = "✅ Подтвердить"

	greetingText        = "Привет! Я бот для бронирования джип-туров. Нажми кнопку, чтобы начать:"
	channelGreetingText = "Добро пожаловать! Нажмите кнопку ниже, чтобы начать бронирование:"
	chooseLocationText  = "Выбери локацию:"
	chooseDateText      = "Выбери дату:"
	chooseTimeText      = "Выбери время:"
	choosePeopleText    = "Выбери количество пассажиров:"
	cancelledText       = "❌ Бронирование отменено. Напишите /start для нового бронирования."
	clearedText         = "🧹 Данные очищены. Напишите /start для начала работы."
	noSessionText       = "Нажмите «" + BeginLabel + "» или напишите /start, чтобы начать бронирование."
	duplicateText       = "❗️Вы уже забронировали эту экскурсию на выбранное время!"
	persistFailedText   = "⚠️ Не удалось сохранить бронирование. Попробуйте подтвердить ещё раз."

	// ChannelDeepLink is the /start argument used by links posted in the tour channel.
	ChannelDeepLink = "from_channel"
)

// ruWeekdays is indexed by time.Weekday (Sunday first).
var ruWeekdays = [...]string{"Вс", "Пн", "Вт", "Ср", "Чт", "Пт", "Сб"}

// PeopleLabel renders a party size with the right Russian plural form.
func PeopleLabel(n int) string {
	word := "человек"
	if n >= 2 && n <= 4 {
		word = "человека"
	}
	return fmt.Sprintf("%d %s", n, word)
}

func summaryText(d models.Draft) string {
	var b strings.Builder
	b.WriteString("📋 Подтверждение бронирования:\n\n")
	fmt.Fprintf(&b, "📍 Локация: %s\n", d.Location)
	fmt.Fprintf(&b, "📅 Дата: %s\n", d.Date)
	fmt.Fprintf(&b, "⏰ Время: %s\n", d.Time)
	fmt.Fprintf(&b, "👥 Количество: %s\n\n", PeopleLabel(d.People))
	b.WriteString("Подтверждаете бронирование?")
	return b.String()
}

func confirmationText(b models.Booking) string {
	return fmt.Sprintf("✅ Спасибо! Ваше бронирование #%d принято.\n\n📋 Детали:\n%s\n\nМы свяжемся с вами для подтверждения.",
		b.ID, notification.BookingDetails(b))
}

func withNotice(notice, prompt string) string {
	if notice == "" {
		return prompt
	}
	return notice + "\n\n" + prompt
}

func validationNotice(err *ValidationError) string {
	switch err.Code {
	case CodeUnknownLocation:
		return "Такой локации нет. Выбери локацию из списка."
	case CodeUnknownDate:
		return "Выбери дату из предложенных."
	case CodeDateUnavailable:
		return "На эту дату свободного времени уже нет. Выбери другую дату."
	case CodeUnknownTime:
		return "Выбери время из предложенных."
	case CodeInvalidPeople:
		return "Введи число от 1 до 6."
	default:
		return "Не понял ответ. Воспользуйся кнопками ниже."
	}
}
