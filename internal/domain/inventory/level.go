package inventory

// StockLevel reports the alert a move from before to after raises against
// threshold. Only a new crossing raises: reaching zero is out_of_stock,
// dropping from above the threshold to at or below it is low_stock.
func StockLevel(before, after, threshold int) Level {
	if after >= before {
		return LevelNone
	}
	if after == 0 {
		return LevelOutOfStock
	}
	if before > threshold && after <= threshold {
		return LevelLowStock
	}
	return LevelNone
}
