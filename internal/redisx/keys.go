package redisx

import "time"

const (
	// Partner reference data: partner:{partner_id} -> PartnerInfo JSON
	KeyPartner = "partner:%s"

	// Parameter store entries: param:{path} -> value
	KeyParam = "param:%s"

	// Worker dedup on queue message id: dedup:{service}:{message_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLDedup = 48 * time.Hour
)
