package image

import (
	"bytes"
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strings"

	"github.com/BourgeoisBear/rasterm"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// 字符单元格的近似像素尺寸
const (
	CellPixelWidth  = 8
	CellPixelHeight = 16
)

// GraphicsProtocol 图形协议
type GraphicsProtocol string

const (
	ProtocolANSI  GraphicsProtocol = "ansi"
	ProtocolKitty GraphicsProtocol = "kitty"
	ProtocolITerm GraphicsProtocol = "iterm2"
	ProtocolSixel GraphicsProtocol = "sixel"
	ProtocolNone  GraphicsProtocol = "none"
)

// Renderer 把解码后的图片转换为终端输出
type Renderer interface {
	Render(img image.Image, cols, rows int) (string, int, int, error)
	Protocol() GraphicsProtocol
}

// ImageRenderer 封装 rasterm 库的图片渲染功能
type ImageRenderer struct {
	protocol GraphicsProtocol
}

// NewImageRenderer 按配置创建渲染器，"auto" 时根据终端环境选择协议
func NewImageRenderer(method string) *ImageRenderer {
	protocol := GraphicsProtocol(strings.ToLower(method))
	switch protocol {
	case ProtocolANSI, ProtocolKitty, ProtocolITerm, ProtocolSixel, ProtocolNone:
	default:
		protocol = DetectProtocol()
	}
	return &ImageRenderer{protocol: protocol}
}

// DetectProtocol 检测终端类型并选择图形协议
func DetectProtocol() GraphicsProtocol {
	term := strings.ToLower(os.Getenv("TERM"))
	termProgram := strings.ToLower(os.Getenv("TERM_PROGRAM"))

	// Kitty 和 Ghostty 使用 Kitty 协议
	if os.Getenv("KITTY_WINDOW_ID") != "" || strings.Contains(term, "kitty") ||
		os.Getenv("GHOSTTY") != "" || termProgram == "ghostty" || strings.Contains(term, "ghostty") {
		return ProtocolKitty
	}

	// iTerm2 和 WezTerm 支持 iTerm2 协议
	if termProgram == "iterm.app" || termProgram == "wezterm" {
		return ProtocolITerm
	}

	for _, sixelTerm := range []string{"xterm-sixel", "mlterm", "yaft"} {
		if strings.Contains(term, sixelTerm) {
			return ProtocolSixel
		}
	}

	// 默认使用 24 位色半块字符
	return ProtocolANSI
}

// Protocol 返回当前使用的协议
func (r *ImageRenderer) Protocol() GraphicsProtocol {
	return r.protocol
}

// Render 在 cols×rows 个单元格内渲染图片，返回输出及实际占用的列数和行数
func (r *ImageRenderer) Render(img image.Image, cols, rows int) (string, int, int, error) {
	cols = max(1, cols)
	rows = max(1, rows)

	switch r.protocol {
	case ProtocolANSI:
		out, c, rr := renderHalfBlocks(img, cols, rows)
		return out, c, rr, nil
	case ProtocolKitty, ProtocolITerm, ProtocolSixel:
		return r.renderGraphics(img, cols, rows)
	default:
		b := img.Bounds()
		text := fmt.Sprintf("🖼️ %d×%d image (terminal graphics disabled)", b.Dx(), b.Dy())
		return text, len([]rune(text)), 1, nil
	}
}

func (r *ImageRenderer) renderGraphics(img image.Image, cols, rows int) (string, int, int, error) {
	fitted := imaging.Fit(img, cols*CellPixelWidth, rows*CellPixelHeight, imaging.Lanczos)
	usedCols, usedRows := cellsFor(fitted.Bounds().Dx(), fitted.Bounds().Dy())

	var out strings.Builder
	var err error
	switch r.protocol {
	case ProtocolKitty:
		err = rasterm.KittyWriteImage(&out, fitted, rasterm.KittyImgOpts{
			DstCols: uint32(usedCols),
			DstRows: uint32(usedRows),
		})
	case ProtocolITerm:
		err = rasterm.ItermWriteImage(&out, fitted)
	case ProtocolSixel:
		// Sixel 需要调色板图像
		bounds := fitted.Bounds()
		paletted := image.NewPaletted(bounds, palette.Plan9)
		draw.FloydSteinberg.Draw(paletted, bounds, fitted, image.Point{})
		err = rasterm.SixelWriteImage(&out, paletted)
	}
	if err != nil {
		return "", 0, 0, &RenderError{Protocol: string(r.protocol), Err: err}
	}
	return out.String(), usedCols, usedRows, nil
}

func cellsFor(width, height int) (int, int) {
	cols := (width + CellPixelWidth - 1) / CellPixelWidth
	rows := (height + CellPixelHeight - 1) / CellPixelHeight
	return max(1, cols), max(1, rows)
}

// renderHalfBlocks 使用 ANSI 24 位颜色半块字符渲染，每个单元格显示上下两个像素
func renderHalfBlocks(img image.Image, cols, rows int) (string, int, int) {
	fitted := imaging.Fit(img, cols, rows*2, imaging.Box)
	b := fitted.Bounds()
	w, h := b.Dx(), b.Dy()

	var out strings.Builder
	usedRows := (h + 1) / 2
	for row := 0; row < usedRows; row++ {
		for x := 0; x < w; x++ {
			top := fitted.NRGBAAt(x, row*2)
			bottom := top
			if row*2+1 < h {
				bottom = fitted.NRGBAAt(x, row*2+1)
			}
			fmt.Fprintf(&out, "\x1b[38;2;%d;%d;%dm\x1b[48;2;%d;%d;%dm▀",
				top.R, top.G, top.B, bottom.R, bottom.G, bottom.B)
		}
		out.WriteString("\x1b[0m")
		if row < usedRows-1 {
			out.WriteString("\n")
		}
	}
	return out.String(), w, usedRows
}

// Decode 解码图片并按 EXIF 方向旋转
func Decode(data []byte, source string) (image.Image, ImageFormat, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", &FormatError{Format: "unknown", Source: source, Reason: err.Error()}
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", &FormatError{Format: format, Source: source, Reason: err.Error()}
	}
	return img, ImageFormat(format), nil
}

// DecodeFile 解码本地图片文件
func DecodeFile(path string) (image.Image, ImageFormat, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	_, format, err := image.DecodeConfig(f)
	if err != nil {
		return nil, "", &FormatError{Format: "unknown", Source: path, Reason: err.Error()}
	}
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", err
	}
	return img, ImageFormat(format), nil
}

// ClearGraphics 返回清除终端中已显示图片的控制序列，仅 Kitty 协议需要
func ClearGraphics(protocol GraphicsProtocol) string {
	if protocol == ProtocolKitty {
		return "\x1b_Ga=d,d=A\x1b\\"
	}
	return ""
}
