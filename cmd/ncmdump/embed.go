package main

import (
	"github.com/bogem/id3v2"
	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"
	"github.com/go-flac/go-flac"

	"github.com/jdxj/ncmdump"
)

func embedMP3(path string, info *ncmdump.Info, image []byte) error {
	mp3File, err := id3v2.Open(path, id3v2.Options{Parse: false})
	if err != nil {
		return err
	}
	defer func() {
		_ = mp3File.Close()
	}()

	mp3File.SetDefaultEncoding(id3v2.EncodingUTF8)
	mp3File.SetTitle(info.Name)
	mp3File.SetAlbum(info.Album)
	mp3File.SetArtist(info.ArtistNames())

	if len(image) > 0 {
		mp3File.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingISO,
			MimeType:    imageMIME(image),
			PictureType: id3v2.PTFrontCover,
			Description: "Front cover",
			Picture:     image,
		})
	}
	return mp3File.Save()
}

func embedFLAC(path string, info *ncmdump.Info, image []byte) error {
	flacFile, err := flac.ParseFile(path)
	if err != nil {
		return err
	}

	var (
		vcIndex  = -1
		picIndex = -1

		vc  *flacvorbis.MetaDataBlockVorbisComment
		pic *flacpicture.MetadataBlockPicture
	)
	for i, meta := range flacFile.Meta {
		if meta.Type == flac.VorbisComment {
			vc, err = flacvorbis.ParseFromMetaDataBlock(*meta)
			if err != nil {
				return err
			}
			vcIndex = i
		}
		if meta.Type == flac.Picture {
			pic, err = flacpicture.ParseFromMetaDataBlock(*meta)
			if err != nil {
				return err
			}
			picIndex = i
		}
	}

	if vc == nil {
		vc = flacvorbis.New()
	}
	_ = vc.Add(flacvorbis.FIELD_TITLE, info.Name)
	_ = vc.Add(flacvorbis.FIELD_ALBUM, info.Album)
	_ = vc.Add(flacvorbis.FIELD_ARTIST, info.ArtistNames())
	mdb := vc.Marshal()
	if vcIndex >= 0 {
		flacFile.Meta[vcIndex] = &mdb
	} else {
		flacFile.Meta = append(flacFile.Meta, &mdb)
	}

	if pic == nil && len(image) > 0 {
		pic, err = flacpicture.NewFromImageData(flacpicture.PictureTypeFrontCover,
			"Front cover", image, imageMIME(image))
		if err != nil {
			return err
		}
	}
	if pic != nil {
		mdb = pic.Marshal()
		if picIndex >= 0 {
			flacFile.Meta[picIndex] = &mdb
		} else {
			flacFile.Meta = append(flacFile.Meta, &mdb)
		}
	}
	return flacFile.Save(path)
}
