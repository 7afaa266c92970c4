package xlbook

import (
	"io"

	"github.com/sirupsen/logrus"
)

type (
	Params struct {
		Logger        logrus.FieldLogger // 缺省丢弃所有日志
		TempDir       string             // 暂存工作簿与CSV的目录，空值使用 os.TempDir()
		Converter     Converter          // 工作簿转CSV的转换器，nil 时使用 NativeConverter
		DetectCharset bool               // 非UTF-8的CSV内容先检测字符集再转码
		SheetName     string             // 单个CSV构成工作簿时的sheet名，缺省 DefaultSheetName
	}

	Option func(p *Params)
)

func NewParams(opts ...Option) *Params {
	params := new(Params)
	for _, opt := range opts {
		opt(params)
	}
	return params
}

func WithLogger(l logrus.FieldLogger) Option { return func(p *Params) { p.Logger = l } }
func WithTempDir(dir string) Option         { return func(p *Params) { p.TempDir = dir } }
func WithConverter(c Converter) Option      { return func(p *Params) { p.Converter = c } }
func WithCharsetDetection() Option          { return func(p *Params) { p.DetectCharset = true } }
func WithSheetName(name string) Option      { return func(p *Params) { p.SheetName = name } }
func WithParams(src *Params) Option         { return func(p *Params) { p.CopyFrom(src) } }

func (p *Params) CopyFrom(src *Params) *Params {
	if src == nil {
		return p
	}
	p.Logger = src.Logger
	p.TempDir = src.TempDir
	p.Converter = src.Converter
	p.DetectCharset = src.DetectCharset
	p.SheetName = src.SheetName
	return p
}

var discardLogger = func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}()

func (p *Params) logger() logrus.FieldLogger {
	if p.Logger == nil {
		return discardLogger
	}
	return p.Logger
}

func (p *Params) sheetName() string {
	if p.SheetName == "" {
		return DefaultSheetName
	}
	return p.SheetName
}

func (p *Params) converter() Converter {
	if p.Converter == nil {
		return &NativeConverter{Logger: p.logger()}
	}
	return p.Converter
}
