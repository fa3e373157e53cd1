package model

import (
	"time"

	"github.com/divcode-web/Trueconnect-bot/internal/domain/enums"
)

type Swipe struct {
	ID        int64             `json:"id"`
	SwiperID  int64             `json:"swiper_id"`
	SwipedID  int64             `json:"swiped_id"`
	Action    enums.SwipeAction `json:"action"`
	CreatedAt time.Time         `json:"created_at"`
}
