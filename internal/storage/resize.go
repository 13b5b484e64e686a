package storage

import (
	"bytes"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"

	"golang.org/x/image/draw"

	"github.com/yasinhessnawi1/Natours_Backend/internal/constants"
	"github.com/yasinhessnawi1/Natours_Backend/internal/utils"
)

// IsImage reports whether the sniffed or declared content type is an image.
func IsImage(contentType string) bool {
	return strings.HasPrefix(contentType, "image/")
}

// ResizeJPEG decodes r, scales it to cover width x height (cropping the
// overflow around the centre) and encodes the result as JPEG.
func ResizeJPEG(r io.Reader, width, height int) ([]byte, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, utils.NewBadRequestError(constants.MsgNotAnImage)
	}
	if !IsImage(http.DetectContentType(raw)) {
		return nil, utils.NewBadRequestError(constants.MsgNotAnImage)
	}

	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, utils.NewBadRequestError(constants.MsgNotAnImage)
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, coverRect(src.Bounds(), width, height), draw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: constants.ImageJPEGQuality}); err != nil {
		return nil, utils.NewInternalError("failed to encode image", err)
	}
	return buf.Bytes(), nil
}

// coverRect is the centred part of b with the aspect ratio of width x height.
func coverRect(b image.Rectangle, width, height int) image.Rectangle {
	sw, sh := b.Dx(), b.Dy()
	if sw*height > sh*width {
		cw := sh * width / height
		x0 := b.Min.X + (sw-cw)/2
		return image.Rect(x0, b.Min.Y, x0+cw, b.Max.Y)
	}
	ch := sw * height / width
	y0 := b.Min.Y + (sh-ch)/2
	return image.Rect(b.Min.X, y0, b.Max.X, y0+ch)
}
