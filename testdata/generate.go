package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/klauspost/compress/zip"
)

type section struct {
	Subject   string  `json:"Subject"`
	Course    string  `json:"Course"`
	Avg       float64 `json:"Avg"`
	Professor string  `json:"Professor"`
	Title     string  `json:"Title"`
	Pass      int     `json:"Pass"`
	Fail      int     `json:"Fail"`
	Audit     int     `json:"Audit"`
	ID        int     `json:"id"`
	Year      string  `json:"Year"`
	Section   string  `json:"Section"`
}

const roomsIndex = `<html><body><table>
<tbody>
<tr>
  <td class="views-field views-field-field-building-code">DMP</td>
  <td class="views-field views-field-title"><a href="./campus/discover/buildings-and-classrooms/DMP.htm">Hugh Dempster Pavilion</a></td>
  <td class="views-field views-field-field-building-address">6245 Agronomy Road V6T 1Z4</td>
</tr>
</tbody>
</table></body></html>`

const dmpPage = `<html><body><table>
<tbody>
<tr>
  <td class="views-field views-field-field-room-number"><a href="http://students.ubc.ca/room/DMP-110">110</a></td>
  <td class="views-field views-field-field-room-capacity">120</td>
  <td class="views-field views-field-field-room-furniture">Classroom-Fixed Tables/Movable Chairs</td>
  <td class="views-field views-field-field-room-type">Tiered Large Group</td>
</tr>
<tr>
  <td class="views-field views-field-field-room-number"><a href="http://students.ubc.ca/room/DMP-201">201</a></td>
  <td class="views-field views-field-field-room-capacity">40</td>
  <td class="views-field views-field-field-room-furniture">Classroom-Movable Tables &amp; Chairs</td>
  <td class="views-field views-field-field-room-type">Small Group</td>
</tr>
</tbody>
</table></body></html>`

func writeArchive(name string, files map[string][]byte) {
	f, err := os.Create(name)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for path, content := range files {
		w, err := zw.Create(path)
		if err != nil {
			log.Fatal(err)
		}
		if _, err := w.Write(content); err != nil {
			log.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		log.Fatal(err)
	}
}

func main() {
	depts := []string{"cpsc", "math", "phys"}
	files := map[string][]byte{}
	id := 1
	for _, dept := range depts {
		var result []section
		for i := 0; i < 4; i++ {
			result = append(result, section{
				Subject:   dept,
				Course:    fmt.Sprintf("%d", 100+i*10),
				Avg:       60 + float64(id)*1.75,
				Professor: fmt.Sprintf("prof %d", i),
				Title:     dept + " intro",
				Pass:      50 + id,
				Fail:      id % 7,
				Audit:     id % 3,
				ID:        id,
				Year:      fmt.Sprintf("%d", 2010+i),
				Section:   "10" + fmt.Sprint(i),
			})
			id++
		}
		data, err := json.Marshal(map[string]interface{}{"result": result})
		if err != nil {
			log.Fatal(err)
		}
		files["courses/"+dept] = data
	}
	writeArchive("courses.zip", files)

	writeArchive("rooms.zip", map[string][]byte{
		"rooms/index.htm": []byte(roomsIndex),
		"rooms/campus/discover/buildings-and-classrooms/DMP.htm": []byte(dmpPage),
	})

	log.Println("Generated courses.zip and rooms.zip")
}
