package models

// AllModels lists every table in migration order.
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&MealType{},
		&SubscriptionPlan{},
		&VendorSubscription{},
		&VendorMenuItem{},
		&UserSubscription{},
		&DailyMenu{},
		&DailyOrder{},
		&DailyOrderItem{},
		&DailyOrderStatusLog{},
		&Payment{},
		&PendingPurchase{},
		&BulkOrder{},
		&BulkOrderItem{},
	}
}
