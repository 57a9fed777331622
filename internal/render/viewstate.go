package render

// 画布常量：默认宽度下比例尺为 175，画布宽高比 5:2
const (
	DefaultWidth    = 940
	MobileThreshold = 600
	AspectRatio     = 5.0 / 2.0
)

// ViewState：每次渲染由容器宽度推导，不持久化
type ViewState struct {
	Width  int
	Height float64
	Mobile bool
}

// NewViewState 宽度不大于 MobileThreshold 时为移动端；非正宽度回退到 DefaultWidth
func NewViewState(width int) ViewState {
	if width <= 0 {
		width = DefaultWidth
	}
	return ViewState{
		Width:  width,
		Height: float64(width) / AspectRatio,
		Mobile: width <= MobileThreshold,
	}
}
