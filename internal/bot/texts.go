package bot

const (
	welcomeText   = "<b>Привет! Благодарим за выбор нашего магазина.</b>"
	projectsText  = "<b>Выбери необходимый проект:</b>"
	serversText   = "<b>Выбери необходимый сервер:</b>"
	statsHint     = "\n\n<i>Показано количество продавцов и виртов</i>"
	statsMissing  = "\n<i>Статистика продавцов временно недоступна</i>"
	notFoundInfo  = "<b>Информация не найдена</b>"
	accessDenied  = "<b>❌ Доступ запрещен</b>"
	badFormat     = "<b>❌ Неверный формат команды</b>"
	orderNotFound = "<b>❌ Заявка не найдена</b>"
	apiFailure    = "<b>❌ Сервис заявок недоступен, попробуйте позже</b>"
	subscribeText = "<b>⚠️ Чтобы использовать бота, подпишитесь на канал:\n\n👉 @%s</b>"
)

const helpText = `<b>📖 Помощь по боту

Доступные команды:
/start - Главное меню
/help - Помощь
/stats - Статистика

Как использовать:
1. Выберите действие (Купить/Продать)
2. Выберите проект
3. Выберите сервер
4. Укажите количество виртов
5. Свяжитесь с поддержкой для завершения заказа

Поддержка: @%s</b>`

const adminText = `<b>👑 Админ-панель

Доступные команды:

📋 Просмотр заявок:
/orders - Все заявки (последние 20)
/orders_buy - Заявки на покупку
/orders_sell - Заявки на продажу
/orders_pending - Ожидающие модерации

✏️ Управление заявками:
/approve_[id] - Одобрить заявку
/reject_[id] - Отклонить заявку
/delete_[id] - Удалить заявку
/edit_[id]_[кол-во_кк] - Изменить количество виртов

🚫 Блокировки:
/ban_[user_id] - Заблокировать навсегда
/ban_[user_id]_[дни] - Заблокировать на срок
/unban_[user_id] - Снять блокировку
/bans - Активные блокировки

📊 Справка:
/prices - Текущие цены серверов</b>`

var infoTexts = map[string]string{
	"guarantees": `<b>🛡 Гарантии

Мы гарантируем:
• Безопасность всех сделок
• Проверку всех продавцов
• Возврат средств в случае обмана
• Поддержку 24/7

Все сделки проходят через гаранта!</b>`,
	"rules": `<b>📋 Правила магазина

1. Запрещено использование читов и эксплойтов
2. Все сделки только через гаранта
3. При обмане - блокировка аккаунта
4. Уважительное отношение к другим пользователям
5. Запрещена продажа краденных аккаунтов

Нарушение правил ведет к блокировке!</b>`,
}
