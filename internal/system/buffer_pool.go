package system

import (
	"image"
	"sync"
)

// FramePool переиспользует RGBA-кадры фиксированного размера между
// сегментами видео, снижая нагрузку на GC: каждый слайд иначе выделял бы
// свежий 8-мегабайтный буфер.
type FramePool struct {
	rect image.Rectangle
	pool sync.Pool
}

func NewFramePool(rect image.Rectangle) *FramePool {
	p := &FramePool{rect: rect}
	p.pool.New = func() interface{} {
		return image.NewRGBA(rect)
	}
	return p
}

// GetFrame возвращает кадр из пула. Содержимое не очищается: вызывающий
// обязан перезаписать каждый пиксель.
func (p *FramePool) GetFrame() *image.RGBA {
	return p.pool.Get().(*image.RGBA)
}

// PutFrame возвращает кадр в пул. Кадры чужого размера игнорируются.
func (p *FramePool) PutFrame(img *image.RGBA) {
	if img == nil || img.Rect != p.rect {
		return
	}
	p.pool.Put(img)
}
