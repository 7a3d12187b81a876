package app

// Operator-facing texts.
const (
	msgCustomerNotFound     = "Пользователь не найден. Начинаем регистрацию..."
	msgAskFirstName         = "Введите имя клиента:"
	msgAskLastName          = "Введите фамилию клиента:"
	msgAskPromoCode         = "Введите промокод (если есть):"
	msgAskBirthDate         = "Введите дату рождения клиента (формат: ДД.ММ.ГГГГ):"
	msgBirthDateRetry       = "Пожалуйста, введите дату еще раз в формате ДД.ММ.ГГГГ или нажмите кнопку \"Пропустить\":"
	msgBirthDateDefaulted   = "Установлена минимально допустимая дата рождения (18 лет)"
	msgBirthDateSet         = "Дата рождения успешно установлена: %s"
	msgNoPromoCode          = "Регистрация продолжается без промокода"
	msgRegistrationCanceled = "Регистрация отменена"
	msgDialogExpired        = "Время ожидания ответа истекло. Регистрация отменена"

	msgSubmitting          = "Отправляем данные клиента в CRM..."
	msgRegistered          = "Регистрация прошла успешно! Получаем информацию о карте..."
	msgPromoCodeNotFound   = "Указанный промокод не найден. Введите другой промокод или нажмите 'Пропустить' для регистрации без промокода:"
	msgAskAnotherPromoCode = "Введите другой промокод или нажмите 'Пропустить' для регистрации без промокода:"
	msgValidationFailed    = "Проверка данных не пройдена: %s"
	msgValidationDetails   = "Детали ошибок:\n"
	msgRetryWithoutPromo   = "Продолжаем регистрацию без промокода..."
	msgRetryWithPromo      = "Пробуем регистрацию с промокодом: %s"
	msgRegistrationFailed  = "Не удалось выполнить регистрацию: %s"
	msgRetrying            = "Пробуем еще раз..."
	msgAttemptsExhausted   = "Превышено количество попыток регистрации. Пожалуйста, попробуйте позже."
	msgCardNotYetAvailable = "Клиент зарегистрирован, но информация о карте пока недоступна. Повторите поиск позже."
	msgUnknownCrmFailure   = "Неизвестная ошибка регистрации"
)
