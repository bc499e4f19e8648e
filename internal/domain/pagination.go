package domain

// TotalPages returns ceil(total/limit); zero when limit is not positive.
func TotalPages(total, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// PageBounds returns the [start, end) slice window of a zero-based page.
// Out-of-range pages yield an empty window.
func PageBounds(total, page, limit int) (int, int) {
	if limit <= 0 || page < 0 {
		return 0, 0
	}
	start := page * limit
	if start >= total {
		return total, total
	}
	end := start + limit
	if end > total {
		end = total
	}
	return start, end
}

func ValidatePage(page, limit int) error {
	if page < 0 {
		return NewValidationError("page", "must be zero or greater")
	}
	if limit <= 0 {
		return NewValidationError("limit", "must be greater than zero")
	}
	return nil
}
